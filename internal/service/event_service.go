package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/clock"
    "github.com/impulse-events/ticketing/internal/metrics"
    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/notify"
    "github.com/impulse-events/ticketing/internal/repository"
    "github.com/impulse-events/ticketing/internal/slug"
)

const (
    // MaxSlugAttempts bounds the insert retries on slug collisions.
    MaxSlugAttempts = 5
    // DefaultListLimit applies when a listing is requested without a limit.
    DefaultListLimit = 100
)

// EventInput carries the organizer supplied fields of a new event.
type EventInput struct {
    LongURL        string     `json:"long_url"`
    Name           string     `json:"name"`
    Place          string     `json:"place"`
    City           string     `json:"city"`
    EventTime      time.Time  `json:"event_time"`
    EventEndTime   *time.Time `json:"event_end_time"`
    Status         string     `json:"status"`
    Price          float64    `json:"price"`
    Description    string     `json:"description"`
    EventType      *string    `json:"event_type"`
    MessageLink    *string    `json:"message_link"`
    PurchasedCount int        `json:"purchased_count"`
    SeatsTotal     int        `json:"seats_total"`
    AccountID      uint64     `json:"account_id"`
}

// UnmarshalJSON accepts event times with or without an offset; offset-less
// values are UTC.
func (in *EventInput) UnmarshalJSON(data []byte) error {
    type plain EventInput
    aux := struct {
        *plain
        EventTime    *model.Timestamp `json:"event_time"`
        EventEndTime *model.Timestamp `json:"event_end_time"`
    }{plain: (*plain)(in)}
    if err := json.Unmarshal(data, &aux); err != nil {
        return err
    }
    if aux.EventTime != nil {
        in.EventTime = aux.EventTime.Time
    }
    if aux.EventEndTime != nil {
        in.EventEndTime = &aux.EventEndTime.Time
    }
    return nil
}

func (in EventInput) validate() error {
    switch {
    case strings.TrimSpace(in.Name) == "":
        return invalid("name", "required")
    case strings.TrimSpace(in.LongURL) == "":
        return invalid("long_url", "required")
    case in.EventTime.IsZero():
        return invalid("event_time", "required")
    case in.EventEndTime != nil && in.EventEndTime.Before(in.EventTime):
        return invalid("event_end_time", "before event_time")
    case in.Status != "" && !model.ValidEventStatus(in.Status):
        return invalid("status", "must be scheduled or finished")
    case in.Price < 0:
        return invalid("price", "must not be negative")
    case in.SeatsTotal < 0:
        return invalid("seats_total", "must not be negative")
    case in.PurchasedCount < 0:
        return invalid("purchased_count", "must not be negative")
    }
    return nil
}

func (in EventInput) event() model.Event {
    e := model.Event{
        LongURL:        in.LongURL,
        Name:           in.Name,
        Place:          in.Place,
        City:           in.City,
        EventTime:      in.EventTime.UTC(),
        Status:         in.Status,
        Price:          in.Price,
        Description:    in.Description,
        EventType:      in.EventType,
        MessageLink:    in.MessageLink,
        PurchasedCount: in.PurchasedCount,
        SeatsTotal:     in.SeatsTotal,
        AccountID:      in.AccountID,
    }
    if in.EventEndTime != nil {
        end := in.EventEndTime.UTC()
        e.EventEndTime = &end
    }
    if e.Status == "" {
        e.Status = model.EventStatusScheduled
    }
    return e
}

// CreateEventResult identifies a newly created event.
type CreateEventResult struct {
    Slug    string `json:"slug"`
    EventID uint64 `json:"event_id"`
}

// EventService owns the event lifecycle.
type EventService struct {
    events   EventStore
    orders   OrderStore
    notifier Notifier
    clock    clock.Clock
    newSlug  func() string
    log      logrus.FieldLogger
}

func NewEventService(events EventStore, orders OrderStore, notifier Notifier, clk clock.Clock, log logrus.FieldLogger) *EventService {
    return &EventService{
        events:   events,
        orders:   orders,
        notifier: notifier,
        clock:    clk,
        newSlug:  slug.Generate,
        log:      log,
    }
}

// Create stores a new event under a freshly generated slug.  A slug that
// is already taken is replaced and the insert retried, at most
// MaxSlugAttempts times in total.  Organizers are notified in the
// background once the event exists.
func (s *EventService) Create(ctx context.Context, in EventInput) (CreateEventResult, error) {
    if err := in.validate(); err != nil {
        return CreateEventResult{}, err
    }
    e := in.event()

    for attempt := 1; attempt <= MaxSlugAttempts; attempt++ {
        e.Slug = s.newSlug()
        err := s.events.Create(ctx, &e)
        if err == nil {
            metrics.EventsCreated.Inc()
            s.log.WithFields(logrus.Fields{"event_id": e.ID, "slug": e.Slug}).Info("event created")
            s.notifier.Notify(s.notifier.Admins(), notify.EventCreatedMessage(e))
            return CreateEventResult{Slug: e.Slug, EventID: e.ID}, nil
        }
        if !errors.Is(err, repository.ErrDuplicateKey) {
            return CreateEventResult{}, fmt.Errorf("create event: %w", err)
        }
        metrics.SlugCollisions.Inc()
        s.log.WithFields(logrus.Fields{"slug": e.Slug, "attempt": attempt}).Warn("event slug collision")
    }
    return CreateEventResult{}, ErrCreationExhausted
}

// GetBySlug is an exact, case-sensitive lookup.
func (s *EventService) GetBySlug(ctx context.Context, sl string) (*model.Event, error) {
    if !slug.Valid(sl) {
        return nil, repository.ErrNotFound
    }
    return s.events.GetBySlug(ctx, sl)
}

func (s *EventService) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
    return s.events.GetByID(ctx, id)
}

// Resolve returns the destination URL behind a slug.
func (s *EventService) Resolve(ctx context.Context, sl string) (string, error) {
    e, err := s.GetBySlug(ctx, sl)
    if err != nil {
        return "", err
    }
    return e.LongURL, nil
}

// ListBetween returns events starting within [start, end], earliest first.
// A nil bound is open; limit <= 0 means DefaultListLimit.
func (s *EventService) ListBetween(ctx context.Context, start, end *time.Time, limit int) ([]model.Event, error) {
    from, to := repository.MinTime, repository.MaxTime
    if start != nil {
        from = start.UTC()
    }
    if end != nil {
        to = end.UTC()
    }
    if limit <= 0 {
        limit = DefaultListLimit
    }
    if from.After(to) {
        return []model.Event{}, nil
    }
    return s.events.ListBetween(ctx, from, to, limit)
}

func (s *EventService) ListAll(ctx context.Context) ([]model.Event, error) {
    return s.events.ListAll(ctx)
}

func validateEventPatch(p model.EventPatch) error {
    switch {
    case p.Name != nil && strings.TrimSpace(*p.Name) == "":
        return invalid("name", "must not be empty")
    case p.LongURL != nil && strings.TrimSpace(*p.LongURL) == "":
        return invalid("long_url", "must not be empty")
    case p.Status != nil && !model.ValidEventStatus(*p.Status):
        return invalid("status", "must be scheduled or finished")
    case p.Price != nil && *p.Price < 0:
        return invalid("price", "must not be negative")
    case p.SeatsTotal != nil && *p.SeatsTotal < 0:
        return invalid("seats_total", "must not be negative")
    case p.PurchasedCount != nil && *p.PurchasedCount < 0:
        return invalid("purchased_count", "must not be negative")
    }
    return nil
}

// Update applies the supplied fields to the event.  When the event has an
// end time its status is derived from it and wins over a supplied status.
// Purchasers are told about the change in the background.
func (s *EventService) Update(ctx context.Context, id uint64, patch model.EventPatch) (*model.Event, error) {
    if err := validateEventPatch(patch); err != nil {
        return nil, err
    }
    now := s.clock.Now()
    updated, err := s.events.Update(ctx, id, func(e *model.Event) error {
        patch.Apply(e)
        if e.EventEndTime != nil && e.EventEndTime.Before(e.EventTime) {
            return invalid("event_end_time", "before event_time")
        }
        if st, ok := e.StatusAt(now); ok {
            e.Status = st
        }
        return nil
    })
    if err != nil {
        return nil, err
    }

    emails, err := s.orders.EmailsForEvent(ctx, id)
    if err != nil {
        s.log.WithError(err).WithField("event_id", id).Warn("event updated but purchaser lookup failed")
        return updated, nil
    }
    s.notifier.Notify(emails, notify.EventUpdatedMessage(*updated))
    return updated, nil
}
