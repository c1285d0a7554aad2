package notify

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/config"
)

const maxBackoff = 30 * time.Second

// dialer bounds the broker TCP dial by ctx.
func dialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
    return func(network, addr string) (net.Conn, error) {
        var d net.Dialer
        return d.DialContext(ctx, network, addr)
    }
}

// Consumer drains the email queue into a Dispatcher (normally SMTP).
type Consumer struct {
    url     string
    queue   string
    target  Dispatcher
    timeout time.Duration
    log     logrus.FieldLogger
}

func NewConsumer(cfg config.AMQPConfig, target Dispatcher, sendTimeout time.Duration, log logrus.FieldLogger) *Consumer {
    return &Consumer{url: cfg.URL, queue: cfg.Queue, target: target, timeout: sendTimeout, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are re-established with a doubling backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.DialConfig(c.url, amqp.Config{Dial: dialer(ctx)})
        if err != nil {
            c.log.WithError(err).Warnf("mail-consumer: dial failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < maxBackoff {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.WithError(err).Warn("mail-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-t.C:
        return true
    case <-ctx.Done():
        return false
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        c.log.WithError(err).Warn("mail-consumer: set QoS failed")
    }
    if err := declareQueue(ch, c.queue); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(ctx, d.Body); err != nil {
                c.log.WithError(err).WithField("message_id", d.MessageId).Warn("mail-consumer: delivery failed")
                _ = d.Nack(false, false) // do not requeue; avoids hot loops on bad jobs
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// handle decodes one job and sends it with a bounded timeout.
func (c *Consumer) handle(ctx context.Context, body []byte) error {
    var job MailJob
    if err := json.Unmarshal(body, &job); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if job.To == "" {
        return errors.New("mail job without recipient")
    }
    sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
    defer cancel()
    return c.target.Send(sendCtx, job.To, job.Subject, job.Lines)
}
