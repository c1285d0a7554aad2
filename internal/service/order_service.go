package service

import (
    "context"
    "fmt"
    "strings"

    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/metrics"
    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/notify"
    "github.com/impulse-events/ticketing/internal/qr"
)

// OrderInput is a ticket purchase request.
type OrderInput struct {
    EventID       uint64 `json:"event_id"`
    PaymentMethod string `json:"payment_method"`
    PeopleCount   int    `json:"people_count"`
    Email         string `json:"email"`
}

// CreateOrderResult is returned to the purchaser.
type CreateOrderResult struct {
    OrderID       uint64      `json:"order_id"`
    Event         model.Event `json:"event"`
    QRCode        string      `json:"qrcode"`
    PaymentMethod string      `json:"payment_method"`
    PeopleCount   int         `json:"people_count"`
}

func validEmail(s string) bool {
    s = strings.TrimSpace(s)
    at := strings.LastIndex(s, "@")
    return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}

func (in OrderInput) validate() error {
    switch {
    case in.PeopleCount <= 0:
        return invalid("people_count", "must be positive")
    case !validEmail(in.Email):
        return invalid("email", "must be an email address")
    case strings.TrimSpace(in.PaymentMethod) == "":
        return invalid("payment_method", "required")
    }
    return nil
}

// OrderService issues tickets.  Seat capacity is not checked and the
// event's purchased counter is left untouched.
type OrderService struct {
    events   EventStore
    orders   OrderStore
    notifier Notifier
    log      logrus.FieldLogger
}

func NewOrderService(events EventStore, orders OrderStore, notifier Notifier, log logrus.FieldLogger) *OrderService {
    return &OrderService{events: events, orders: orders, notifier: notifier, log: log}
}

// Create records an order for an existing event, then emails the ticket to
// the purchaser and tells organizers about the new participant.  Both
// emails are sent in the background.
func (s *OrderService) Create(ctx context.Context, in OrderInput) (CreateOrderResult, error) {
    if err := in.validate(); err != nil {
        return CreateOrderResult{}, err
    }
    ev, err := s.events.GetByID(ctx, in.EventID)
    if err != nil {
        return CreateOrderResult{}, err
    }

    o := model.Order{
        EventID:       ev.ID,
        QRCode:        qr.Link(ev.LongURL),
        PaymentMethod: in.PaymentMethod,
        PeopleCount:   in.PeopleCount,
        Email:         strings.TrimSpace(in.Email),
    }
    if err := s.orders.Create(ctx, &o); err != nil {
        return CreateOrderResult{}, fmt.Errorf("create order: %w", err)
    }
    metrics.OrdersCreated.Inc()
    s.log.WithFields(logrus.Fields{"order_id": o.ID, "event_id": ev.ID}).Info("order created")

    s.notifier.Notify([]string{o.Email}, notify.TicketMessage(*ev, o.ID, o.QRCode))
    s.notifier.Notify(s.notifier.Admins(), notify.ParticipantMessage(*ev, o.Email))

    return CreateOrderResult{
        OrderID:       o.ID,
        Event:         *ev,
        QRCode:        o.QRCode,
        PaymentMethod: o.PaymentMethod,
        PeopleCount:   o.PeopleCount,
    }, nil
}

func (s *OrderService) Get(ctx context.Context, id uint64) (*model.Order, error) {
    return s.orders.GetByID(ctx, id)
}

// Update corrects order fields.  No notification is sent.
func (s *OrderService) Update(ctx context.Context, id uint64, patch model.OrderPatch) (*model.Order, error) {
    switch {
    case patch.PeopleCount != nil && *patch.PeopleCount <= 0:
        return nil, invalid("people_count", "must be positive")
    case patch.Email != nil && !validEmail(*patch.Email):
        return nil, invalid("email", "must be an email address")
    case patch.PaymentMethod != nil && strings.TrimSpace(*patch.PaymentMethod) == "":
        return nil, invalid("payment_method", "must not be empty")
    }
    return s.orders.Update(ctx, id, func(o *model.Order) error {
        patch.Apply(o)
        return nil
    })
}
