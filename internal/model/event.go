package model

import (
    "encoding/json"
    "time"
)

// Event statuses.  An event moves from scheduled to finished once its end
// time has passed; the transition is only evaluated on update.
const (
    EventStatusScheduled = "scheduled"
    EventStatusFinished  = "finished"
)

// Event represents an organizer-registered event as stored in the
// `events` table.  Each event has a numeric ID assigned by the database and
// a short globally unique slug used for shareable links.
//
// Fields:
//  ID             – primary key identifier.
//  Slug           – 6 character alphanumeric share identifier (unique).
//  LongURL        – destination URL the slug resolves to.
//  Name           – event title.
//  Place          – venue.
//  City           – city where the event takes place.
//  EventTime      – start time (UTC).
//  EventEndTime   – optional end time (UTC).
//  Status         – scheduled or finished.
//  Price          – ticket price.
//  Description    – free text description.
//  EventType      – optional category.
//  MessageLink    – optional link to an external announcement.
//  PurchasedCount – number of tickets bought (stored, not enforced).
//  SeatsTotal     – total seat capacity (stored, not enforced).
//  AccountID      – owning organizer account.
//  CreatedAt      – creation timestamp.
type Event struct {
    ID             uint64     `json:"event_id"`        // events.id
    Slug           string     `json:"slug"`            // events.slug
    LongURL        string     `json:"long_url"`        // events.long_url
    Name           string     `json:"name"`            // events.name
    Place          string     `json:"place"`           // events.place
    City           string     `json:"city"`            // events.city
    EventTime      time.Time  `json:"event_time"`      // events.event_time
    EventEndTime   *time.Time `json:"event_end_time"`  // events.event_end_time (nullable)
    Status         string     `json:"status"`          // events.status
    Price          float64    `json:"price"`           // events.price
    Description    string     `json:"description"`     // events.description
    EventType      *string    `json:"event_type"`      // events.event_type (nullable)
    MessageLink    *string    `json:"message_link"`    // events.message_link (nullable)
    PurchasedCount int        `json:"purchased_count"` // events.purchased_count
    SeatsTotal     int        `json:"seats_total"`     // events.seats_total
    AccountID      uint64     `json:"account_id"`      // events.account_id
    CreatedAt      time.Time  `json:"created_at"`      // events.created_at
}

// EventPatch carries a partial update.  A nil field means the caller did
// not supply it and the stored value is kept.
type EventPatch struct {
    LongURL        *string    `json:"long_url"`
    Name           *string    `json:"name"`
    Place          *string    `json:"place"`
    City           *string    `json:"city"`
    EventTime      *time.Time `json:"event_time"`
    EventEndTime   *time.Time `json:"event_end_time"`
    Status         *string    `json:"status"`
    Price          *float64   `json:"price"`
    Description    *string    `json:"description"`
    EventType      *string    `json:"event_type"`
    MessageLink    *string    `json:"message_link"`
    PurchasedCount *int       `json:"purchased_count"`
    SeatsTotal     *int       `json:"seats_total"`
    AccountID      *uint64    `json:"account_id"`
}

// UnmarshalJSON reads event_time and event_end_time as Timestamp so
// offset-less values are accepted.
func (p *EventPatch) UnmarshalJSON(data []byte) error {
    type plain EventPatch
    aux := struct {
        *plain
        EventTime    *Timestamp `json:"event_time"`
        EventEndTime *Timestamp `json:"event_end_time"`
    }{plain: (*plain)(p)}
    if err := json.Unmarshal(data, &aux); err != nil {
        return err
    }
    if aux.EventTime != nil {
        p.EventTime = &aux.EventTime.Time
    }
    if aux.EventEndTime != nil {
        p.EventEndTime = &aux.EventEndTime.Time
    }
    return nil
}

// Apply copies every supplied field of p onto e.  Times are normalized to UTC.
func (p EventPatch) Apply(e *Event) {
    if p.LongURL != nil {
        e.LongURL = *p.LongURL
    }
    if p.Name != nil {
        e.Name = *p.Name
    }
    if p.Place != nil {
        e.Place = *p.Place
    }
    if p.City != nil {
        e.City = *p.City
    }
    if p.EventTime != nil {
        e.EventTime = p.EventTime.UTC()
    }
    if p.EventEndTime != nil {
        end := p.EventEndTime.UTC()
        e.EventEndTime = &end
    }
    if p.Status != nil {
        e.Status = *p.Status
    }
    if p.Price != nil {
        e.Price = *p.Price
    }
    if p.Description != nil {
        e.Description = *p.Description
    }
    if p.EventType != nil {
        v := *p.EventType
        e.EventType = &v
    }
    if p.MessageLink != nil {
        v := *p.MessageLink
        e.MessageLink = &v
    }
    if p.PurchasedCount != nil {
        e.PurchasedCount = *p.PurchasedCount
    }
    if p.SeatsTotal != nil {
        e.SeatsTotal = *p.SeatsTotal
    }
    if p.AccountID != nil {
        e.AccountID = *p.AccountID
    }
}

// StatusAt derives the event status from its end time.  The second return
// value is false when the end time is unknown and no status can be derived.
func (e Event) StatusAt(now time.Time) (string, bool) {
    if e.EventEndTime == nil {
        return "", false
    }
    if e.EventEndTime.Before(now) {
        return EventStatusFinished, true
    }
    return EventStatusScheduled, true
}

// ValidEventStatus reports whether s is a known event status.
func ValidEventStatus(s string) bool {
    return s == EventStatusScheduled || s == EventStatusFinished
}
