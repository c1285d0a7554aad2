package notify

import (
    "context"

    "github.com/sirupsen/logrus"
)

// LogDispatcher only logs messages.  It is used in development when no
// mail server is available.
type LogDispatcher struct {
    log logrus.FieldLogger
}

func NewLogDispatcher(log logrus.FieldLogger) *LogDispatcher {
    return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Send(ctx context.Context, to, subject string, lines []string) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    d.log.WithFields(logrus.Fields{
        "to":      to,
        "subject": subject,
        "body":    RenderBody(lines),
    }).Info("email")
    return nil
}
