package notify

import (
    "context"
    "errors"
    "sync"
)

type sent struct {
    to, subject string
    lines       []string
}

// recordingDispatcher records sends and fails for addresses in failFor.
type recordingDispatcher struct {
    mu      sync.Mutex
    sent    []sent
    failFor map[string]bool
    block   bool
}

func (r *recordingDispatcher) Send(ctx context.Context, to, subject string, lines []string) error {
    if r.block {
        <-ctx.Done()
        return ctx.Err()
    }
    if r.failFor[to] {
        return errors.New("mailbox unavailable")
    }
    r.mu.Lock()
    defer r.mu.Unlock()
    r.sent = append(r.sent, sent{to: to, subject: subject, lines: lines})
    return nil
}

func (r *recordingDispatcher) recipients() []string {
    r.mu.Lock()
    defer r.mu.Unlock()
    var out []string
    for _, s := range r.sent {
        out = append(out, s.to)
    }
    return out
}
