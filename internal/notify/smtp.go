package notify

import (
    "context"
    "fmt"

    gomail "gopkg.in/gomail.v2"

    "github.com/impulse-events/ticketing/internal/config"
)

// SMTPDispatcher sends mail directly through an SMTP server.  STARTTLS is
// used when the server offers it; SSL selects implicit TLS instead.
type SMTPDispatcher struct {
    dialer *gomail.Dialer
    from   string
}

// NewSMTPDispatcher builds a dispatcher from the SMTP settings.
func NewSMTPDispatcher(cfg config.SMTPConfig) *SMTPDispatcher {
    d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
    d.SSL = cfg.SSL
    from := cfg.From
    if from == "" {
        from = cfg.User
    }
    return &SMTPDispatcher{dialer: d, from: from}
}

func (s *SMTPDispatcher) message(to, subject string, lines []string) *gomail.Message {
    m := gomail.NewMessage()
    m.SetHeader("From", s.from)
    m.SetHeader("To", to)
    m.SetHeader("Subject", subject)
    m.SetBody("text/plain", RenderBody(lines))
    return m
}

// Send dials the server and delivers one message.  gomail has no context
// support, so the dial runs in a goroutine and Send returns as soon as ctx
// is done.
func (s *SMTPDispatcher) Send(ctx context.Context, to, subject string, lines []string) error {
    m := s.message(to, subject, lines)
    errc := make(chan error, 1)
    go func() { errc <- s.dialer.DialAndSend(m) }()
    select {
    case err := <-errc:
        if err != nil {
            return fmt.Errorf("smtp send to %s: %w", to, err)
        }
        return nil
    case <-ctx.Done():
        return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
    }
}
