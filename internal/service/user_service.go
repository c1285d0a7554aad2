package service

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/repository"
)

// UserService manages user records.  Users are never removed; deletion
// only flips the status.
type UserService struct {
    users UserStore
    log   logrus.FieldLogger
}

func NewUserService(users UserStore, log logrus.FieldLogger) *UserService {
    return &UserService{users: users, log: log}
}

func normalizeEmail(s string) string {
    return strings.ToLower(strings.TrimSpace(s))
}

func (s *UserService) Get(ctx context.Context, id uint64) (*model.User, error) {
    return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, f model.UserFilter) ([]model.User, error) {
    if f.Status != "" && !model.ValidUserStatus(f.Status) {
        return nil, invalid("status", "must be active or deleted")
    }
    return s.users.List(ctx, f)
}

// Update applies an administrative patch.
func (s *UserService) Update(ctx context.Context, id uint64, patch model.UserPatch) (*model.User, error) {
    switch {
    case patch.Role != nil && !model.ValidRole(*patch.Role):
        return nil, invalid("role", "must be admin or user")
    case patch.Status != nil && !model.ValidUserStatus(*patch.Status):
        return nil, invalid("status", "must be active or deleted")
    }
    return s.users.Update(ctx, id, func(u *model.User) error {
        patch.Apply(u)
        return nil
    })
}

// UpdateProfile is the self-service variant of Update: role and status
// cannot be changed through it.
func (s *UserService) UpdateProfile(ctx context.Context, id uint64, patch model.UserPatch) (*model.User, error) {
    patch.Role = nil
    patch.Status = nil
    return s.Update(ctx, id, patch)
}

// SoftDelete marks the user deleted.  Deleting twice is not an error.
func (s *UserService) SoftDelete(ctx context.Context, id uint64) (*model.User, error) {
    return s.users.Update(ctx, id, func(u *model.User) error {
        u.Status = model.UserStatusDeleted
        return nil
    })
}

// GetOrCreate returns the user registered under email, creating a regular
// active user on first sight.  A concurrent insert of the same email is
// resolved by reading the winner's row.
func (s *UserService) GetOrCreate(ctx context.Context, email string) (*model.User, error) {
    email = normalizeEmail(email)
    if email == "" {
        return nil, invalid("email", "required")
    }
    u, err := s.users.GetByEmail(ctx, email)
    if err == nil {
        return u, nil
    }
    if !errors.Is(err, repository.ErrNotFound) {
        return nil, err
    }

    u = &model.User{Email: email, Role: model.RoleUser, Status: model.UserStatusActive}
    if err := s.users.Create(ctx, u); err != nil {
        if errors.Is(err, repository.ErrDuplicateKey) {
            return s.users.GetByEmail(ctx, email)
        }
        return nil, fmt.Errorf("create user: %w", err)
    }
    s.log.WithField("user_id", u.ID).Info("user created")
    return u, nil
}

// EnsureAdmin makes sure an active admin exists for email, creating or
// promoting the user as needed.  Calling it again changes nothing.
func (s *UserService) EnsureAdmin(ctx context.Context, email string) (*model.User, error) {
    email = normalizeEmail(email)
    if email == "" {
        return nil, invalid("email", "required")
    }
    u, err := s.users.GetByEmail(ctx, email)
    if errors.Is(err, repository.ErrNotFound) {
        u = &model.User{Email: email, Role: model.RoleAdmin, Status: model.UserStatusActive}
        err = s.users.Create(ctx, u)
        if err == nil {
            s.log.WithField("email", email).Info("admin user created")
            return u, nil
        }
        if !errors.Is(err, repository.ErrDuplicateKey) {
            return nil, fmt.Errorf("create admin: %w", err)
        }
        u, err = s.users.GetByEmail(ctx, email)
    }
    if err != nil {
        return nil, err
    }
    if u.Role == model.RoleAdmin && u.Status == model.UserStatusActive {
        return u, nil
    }
    u, err = s.users.Update(ctx, u.ID, func(u *model.User) error {
        u.Role = model.RoleAdmin
        u.Status = model.UserStatusActive
        return nil
    })
    if err != nil {
        return nil, err
    }
    s.log.WithField("email", email).Info("user promoted to admin")
    return u, nil
}
