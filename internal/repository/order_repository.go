package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/impulse-events/ticketing/internal/model"
)

const orderColumns = `id, event_id, qrcode, payment_method, people_count, email, created_at`

// OrderRepo provides access to the orders table.
type OrderRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewOrderRepo returns a new OrderRepo.
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func scanOrder(s rowScanner) (*model.Order, error) {
	var o model.Order
	if err := s.Scan(&o.ID, &o.EventID, &o.QRCode, &o.PaymentMethod, &o.PeopleCount, &o.Email, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}

// Create inserts an order and sets its ID and creation time.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	const q = `INSERT INTO orders (event_id, qrcode, payment_method, people_count, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	createdAt := r.now()
	res, err := r.db.ExecContext(ctx, q, o.EventID, o.QRCode, o.PaymentMethod, o.PeopleCount, o.Email, createdAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.CreatedAt = createdAt
	return nil
}

// GetByID returns the order or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// EmailsForEvent lists the distinct purchaser emails of an event.
func (r *OrderRepo) EmailsForEvent(ctx context.Context, eventID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT email FROM orders WHERE event_id = ? ORDER BY email`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	emails := []string{}
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// Update locks the order row and applies mutate inside a transaction.
func (r *OrderRepo) Update(ctx context.Context, id uint64, mutate func(*model.Order) error) (*model.Order, error) {
	var updated *model.Order
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ? FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := mutate(o); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET qrcode = ?, payment_method = ?, people_count = ?, email = ? WHERE id = ?`,
			o.QRCode, o.PaymentMethod, o.PeopleCount, o.Email, id); err != nil {
			return fmt.Errorf("update order %d: %w", id, err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
