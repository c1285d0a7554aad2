// Package notify delivers plain-text emails.  A Dispatcher sends one
// message to one recipient; the Notifier fans messages out to many
// recipients, either in the background on a worker pool or synchronously.
// Every send is bounded by a timeout and failures are logged and counted,
// never returned to the workflow that triggered them.
package notify

import (
    "context"
    "strings"
)

// Message kinds, used as the metrics label.
const (
    KindTicket       = "ticket"
    KindParticipant  = "participant"
    KindEventUpdated = "event_updated"
    KindEventCreated = "event_created"
    KindReminder     = "reminder"
)

// Dispatcher sends a single message.  Implementations must honour ctx.
type Dispatcher interface {
    Send(ctx context.Context, to, subject string, lines []string) error
}

// Message is a rendered notification ready to be sent to any number of
// recipients.
type Message struct {
    Kind    string
    Subject string
    Lines   []string
}

// Dedupe drops blank addresses and case-insensitive duplicates, keeping the
// first spelling seen.
func Dedupe(recipients []string) []string {
    seen := make(map[string]bool, len(recipients))
    out := make([]string, 0, len(recipients))
    for _, r := range recipients {
        r = strings.TrimSpace(r)
        if r == "" {
            continue
        }
        k := strings.ToLower(r)
        if seen[k] {
            continue
        }
        seen[k] = true
        out = append(out, r)
    }
    return out
}
