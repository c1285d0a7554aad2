package notify

import (
    "context"
    "time"

    "github.com/alitto/pond/v2"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/config"
    "github.com/impulse-events/ticketing/internal/metrics"
)

// Report lists the outcome of a synchronous fan-out.
type Report struct {
    Sent   []string
    Failed []string
}

// Notifier fans messages out over a Dispatcher.
type Notifier struct {
    d       Dispatcher
    admins  []string
    timeout time.Duration
    pool    pond.Pool
    log     logrus.FieldLogger
}

// NewNotifier starts a worker pool of cfg.PoolSize goroutines.  Call Close
// to drain it.
func NewNotifier(d Dispatcher, cfg config.NotifyConfig, log logrus.FieldLogger) *Notifier {
    size := cfg.PoolSize
    if size < 1 {
        size = 1
    }
    timeout := cfg.SendTimeout
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    return &Notifier{
        d:       d,
        admins:  Dedupe(cfg.AdminEmails),
        timeout: timeout,
        pool:    pond.NewPool(size),
        log:     log,
    }
}

// Admins returns the configured organizer and admin recipients.
func (n *Notifier) Admins() []string {
    return append([]string(nil), n.admins...)
}

// Notify queues msg for every recipient and returns immediately.  Sends run
// detached from any request context, each bounded by the send timeout.
func (n *Notifier) Notify(recipients []string, msg Message) {
    for _, to := range Dedupe(recipients) {
        n.pool.Submit(func() {
            _ = n.send(context.Background(), to, msg)
        })
    }
}

// Deliver sends msg to each recipient in turn and waits for the result.  A
// failed send does not stop the remaining ones.
func (n *Notifier) Deliver(ctx context.Context, recipients []string, msg Message) Report {
    rep := Report{Sent: []string{}, Failed: []string{}}
    for _, to := range Dedupe(recipients) {
        if err := n.send(ctx, to, msg); err != nil {
            rep.Failed = append(rep.Failed, to)
            continue
        }
        rep.Sent = append(rep.Sent, to)
    }
    return rep
}

func (n *Notifier) send(parent context.Context, to string, msg Message) error {
    ctx, cancel := context.WithTimeout(parent, n.timeout)
    defer cancel()
    err := n.d.Send(ctx, to, msg.Subject, msg.Lines)
    if err != nil {
        metrics.Notifications.WithLabelValues(msg.Kind, metrics.ResultFailed).Inc()
        n.log.WithError(err).WithFields(logrus.Fields{"kind": msg.Kind, "to": to}).Warn("notification failed")
        return err
    }
    metrics.Notifications.WithLabelValues(msg.Kind, metrics.ResultSent).Inc()
    n.log.WithFields(logrus.Fields{"kind": msg.Kind, "to": to}).Debug("notification sent")
    return nil
}

// Close waits for queued sends to finish and stops the pool.
func (n *Notifier) Close() {
    n.pool.StopAndWait()
}
