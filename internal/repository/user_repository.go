package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/impulse-events/ticketing/internal/model"
)

const userColumns = `id, email, display_name, phone, profile_image, role, status, created_at`

// UserRepo provides access to the users table.  Emails are stored
// lower-cased and are unique.
type UserRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepo returns a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u                          model.User
		displayName, phone, avatar sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Email, &displayName, &phone, &avatar, &u.Role, &u.Status, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.DisplayName = stringPtr(displayName)
	u.Phone = stringPtr(phone)
	u.ProfileImage = stringPtr(avatar)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// Create inserts a new user.  ErrDuplicateKey is returned when the email
// is already registered.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (email, display_name, phone, profile_image, role, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	createdAt := r.now()
	res, err := r.db.ExecContext(ctx, q, u.Email, nullString(u.DisplayName), nullString(u.Phone),
		nullString(u.ProfileImage), u.Role, u.Status, createdAt)
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
	u.ID = uint64(id)
	u.CreatedAt = createdAt
	return nil
}

// GetByID returns the user or ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// GetByEmail looks a user up by email, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// List returns users ordered by ID, optionally restricted to one status.
func (r *UserRepo) List(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if f.Status != "" {
		q += ` WHERE status = ?`
		args = append(args, f.Status)
	}
	q += ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Update locks the user row and applies mutate inside a transaction.
func (r *UserRepo) Update(ctx context.Context, id uint64, mutate func(*model.User) error) (*model.User, error) {
	var updated *model.User
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := mutate(u); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET display_name = ?, phone = ?, profile_image = ?, role = ?, status = ? WHERE id = ?`,
			nullString(u.DisplayName), nullString(u.Phone), nullString(u.ProfileImage), u.Role, u.Status, id); err != nil {
			return fmt.Errorf("update user %d: %w", id, err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
