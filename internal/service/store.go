package service

import (
    "context"
    "time"

    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/notify"
)

// EventStore persists events.  Create must report a slug conflict as
// repository.ErrDuplicateKey; Update must be atomic per event.
type EventStore interface {
    Create(ctx context.Context, e *model.Event) error
    GetByID(ctx context.Context, id uint64) (*model.Event, error)
    GetBySlug(ctx context.Context, slug string) (*model.Event, error)
    ListBetween(ctx context.Context, start, end time.Time, limit int) ([]model.Event, error)
    ListAll(ctx context.Context) ([]model.Event, error)
    Update(ctx context.Context, id uint64, mutate func(*model.Event) error) (*model.Event, error)
}

type OrderStore interface {
    Create(ctx context.Context, o *model.Order) error
    GetByID(ctx context.Context, id uint64) (*model.Order, error)
    Update(ctx context.Context, id uint64, mutate func(*model.Order) error) (*model.Order, error)
    EmailsForEvent(ctx context.Context, eventID uint64) ([]string, error)
}

type UserStore interface {
    Create(ctx context.Context, u *model.User) error
    GetByID(ctx context.Context, id uint64) (*model.User, error)
    GetByEmail(ctx context.Context, email string) (*model.User, error)
    List(ctx context.Context, f model.UserFilter) ([]model.User, error)
    Update(ctx context.Context, id uint64, mutate func(*model.User) error) (*model.User, error)
}

// Notifier is satisfied by *notify.Notifier.
type Notifier interface {
    Admins() []string
    Notify(recipients []string, msg notify.Message)
    Deliver(ctx context.Context, recipients []string, msg notify.Message) notify.Report
}
