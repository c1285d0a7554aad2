package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/impulse-events/ticketing/internal/model"
)

const eventColumns = `id, slug, long_url, name, place, city, event_time, event_end_time, status,
	price, description, event_type, message_link, purchased_count, seats_total, account_id, created_at`

// EventRepo manages persistence for events.  All timestamps are written
// and read in UTC.
type EventRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func scanEvent(s rowScanner) (*model.Event, error) {
	var (
		e           model.Event
		end         sql.NullTime
		eventType   sql.NullString
		messageLink sql.NullString
	)
	err := s.Scan(&e.ID, &e.Slug, &e.LongURL, &e.Name, &e.Place, &e.City, &e.EventTime, &end, &e.Status,
		&e.Price, &e.Description, &eventType, &messageLink, &e.PurchasedCount, &e.SeatsTotal, &e.AccountID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.EventTime = e.EventTime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	if end.Valid {
		t := end.Time.UTC()
		e.EventEndTime = &t
	}
	e.EventType = stringPtr(eventType)
	e.MessageLink = stringPtr(messageLink)
	return &e, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Create inserts a new event and assigns the generated ID back to e.  A
// slug collision is reported as ErrDuplicateKey and leaves no row behind.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (slug, long_url, name, place, city, event_time, event_end_time, status,
		price, description, event_type, message_link, purchased_count, seats_total, account_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	createdAt := r.now()
	res, err := r.db.ExecContext(ctx, q,
		e.Slug, e.LongURL, e.Name, e.Place, e.City, e.EventTime.UTC(), nullTime(e.EventEndTime), e.Status,
		e.Price, e.Description, nullString(e.EventType), nullString(e.MessageLink), e.PurchasedCount, e.SeatsTotal,
		e.AccountID, createdAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.CreatedAt = createdAt
	return nil
}

// GetByID retrieves an event by its ID.  It returns ErrNotFound if there
// is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// GetBySlug retrieves an event by its slug.  The slug column uses a binary
// collation so the match is exact and case-sensitive.
func (r *EventRepo) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ListBetween returns events starting within [start, end] inclusive,
// ordered by start time ascending.  When none match it returns an empty
// slice and nil error.
func (r *EventRepo) ListBetween(ctx context.Context, start, end time.Time, limit int) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
		WHERE event_time >= ? AND event_time <= ?
		ORDER BY event_time ASC, id ASC
		LIMIT ?`
	return r.list(ctx, q, start.UTC(), end.UTC(), limit)
}

// ListAll returns every event ordered by start time.
func (r *EventRepo) ListAll(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_time ASC, id ASC`)
}

// ListRecentByCity returns the latest events of a city, newest first.
func (r *EventRepo) ListRecentByCity(ctx context.Context, city string, limit int) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE city = ? ORDER BY event_time DESC LIMIT ?`
	return r.list(ctx, q, city, limit)
}

func (r *EventRepo) list(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update locks the event row, lets mutate change it and writes it back in
// one transaction.  An error from mutate aborts the update and is returned
// unchanged.  ErrNotFound is returned when the row does not exist.
func (r *EventRepo) Update(ctx context.Context, id uint64, mutate func(*model.Event) error) (*model.Event, error) {
	var updated *model.Event
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		e, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ? FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := mutate(e); err != nil {
			return err
		}
		const q = `UPDATE events SET long_url = ?, name = ?, place = ?, city = ?, event_time = ?, event_end_time = ?,
			status = ?, price = ?, description = ?, event_type = ?, message_link = ?, purchased_count = ?,
			seats_total = ?, account_id = ?
			WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q,
			e.LongURL, e.Name, e.Place, e.City, e.EventTime.UTC(), nullTime(e.EventEndTime),
			e.Status, e.Price, e.Description, nullString(e.EventType), nullString(e.MessageLink), e.PurchasedCount,
			e.SeatsTotal, e.AccountID, id); err != nil {
			return fmt.Errorf("update event %d: %w", id, err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
