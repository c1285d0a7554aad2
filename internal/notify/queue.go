package notify

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/config"
)

// MailJob is the payload placed on the email queue.  The notify-worker
// consumes jobs and hands them to an SMTP dispatcher.
type MailJob struct {
    ID        string    `json:"id"`
    To        string    `json:"to"`
    Subject   string    `json:"subject"`
    Lines     []string  `json:"lines"`
    CreatedAt time.Time `json:"created_at"`
}

// QueueDispatcher publishes each message to a durable RabbitMQ queue
// instead of sending it inline.  A connection is opened per publish.
type QueueDispatcher struct {
    url   string
    queue string
    log   logrus.FieldLogger
}

func NewQueueDispatcher(cfg config.AMQPConfig, log logrus.FieldLogger) *QueueDispatcher {
    return &QueueDispatcher{url: cfg.URL, queue: cfg.Queue, log: log}
}

func declareQueue(ch *amqp.Channel, name string) error {
    _, err := ch.QueueDeclare(
        name,
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,
    )
    return err
}

// Send enqueues one mail job.  Messages are persistent and carry the job
// id as MessageId.
func (q *QueueDispatcher) Send(ctx context.Context, to, subject string, lines []string) error {
    job := MailJob{
        ID:        uuid.NewString(),
        To:        to,
        Subject:   subject,
        Lines:     lines,
        CreatedAt: time.Now().UTC(),
    }
    body, err := json.Marshal(job)
    if err != nil {
        return fmt.Errorf("marshal mail job: %w", err)
    }

    conn, err := amqp.DialConfig(q.url, amqp.Config{Dial: dialer(ctx)})
    if err != nil {
        q.log.WithError(err).Warn("rabbitmq: dial failed")
        return fmt.Errorf("amqp dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("amqp channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := declareQueue(ch, q.queue); err != nil {
        return fmt.Errorf("amqp queue declare: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    job.ID,
        Timestamp:    job.CreatedAt,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.queue, false, false, pub); err != nil {
        q.log.WithError(err).Warn("rabbitmq: publish failed")
        return fmt.Errorf("amqp publish: %w", err)
    }
    return nil
}
