package service

import (
    "context"
    "fmt"

    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/notify"
)

// ReminderResult lists who was reminded.  Recipients holds every distinct
// purchaser; Failed the subset whose send did not go through.
type ReminderResult struct {
    Success    bool     `json:"success"`
    Recipients []string `json:"recipients"`
    Failed     []string `json:"failed"`
}

type BroadcastResult struct {
    Success        bool `json:"success"`
    RecipientCount int  `json:"recipient_count"`
    FailedCount    int  `json:"failed_count"`
}

// BroadcastService sends bulk notices.  Sends happen one after another
// within the call; a failed send is recorded and the rest still go out.
type BroadcastService struct {
    events   EventStore
    orders   OrderStore
    users    UserStore
    notifier Notifier
    log      logrus.FieldLogger
}

func NewBroadcastService(events EventStore, orders OrderStore, users UserStore, notifier Notifier, log logrus.FieldLogger) *BroadcastService {
    return &BroadcastService{events: events, orders: orders, users: users, notifier: notifier, log: log}
}

// SendEventReminder tells every purchaser of the event that it starts soon.
func (s *BroadcastService) SendEventReminder(ctx context.Context, eventID uint64) (ReminderResult, error) {
    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        return ReminderResult{}, err
    }
    emails, err := s.orders.EmailsForEvent(ctx, eventID)
    if err != nil {
        return ReminderResult{}, fmt.Errorf("purchaser emails: %w", err)
    }
    recipients := notify.Dedupe(emails)
    rep := s.notifier.Deliver(ctx, recipients, notify.ReminderMessage(*ev))

    s.log.WithFields(logrus.Fields{
        "event_id": eventID, "recipients": len(recipients), "failed": len(rep.Failed),
    }).Info("event reminder sent")
    return ReminderResult{Success: true, Recipients: recipients, Failed: rep.Failed}, nil
}

// SendEventCreatedBroadcast announces the event to every active user.
func (s *BroadcastService) SendEventCreatedBroadcast(ctx context.Context, eventID uint64) (BroadcastResult, error) {
    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        return BroadcastResult{}, err
    }
    users, err := s.users.List(ctx, model.UserFilter{Status: model.UserStatusActive})
    if err != nil {
        return BroadcastResult{}, fmt.Errorf("active users: %w", err)
    }
    emails := make([]string, 0, len(users))
    for _, u := range users {
        emails = append(emails, u.Email)
    }
    recipients := notify.Dedupe(emails)
    rep := s.notifier.Deliver(ctx, recipients, notify.EventCreatedMessage(*ev))

    s.log.WithFields(logrus.Fields{
        "event_id": eventID, "recipients": len(recipients), "failed": len(rep.Failed),
    }).Info("event broadcast sent")
    return BroadcastResult{Success: true, RecipientCount: len(recipients), FailedCount: len(rep.Failed)}, nil
}
