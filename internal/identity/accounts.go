package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/impulse-events/ticketing/internal/config"
)

// ErrAccountsUnsupported is returned by NewAccounts for providers that only
// verify tokens.
var ErrAccountsUnsupported = errors.New("account management is not supported by this identity provider")

// ProviderError is a request the identity provider refused, such as
// EMAIL_EXISTS or INVALID_PASSWORD.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s (%d)", e.Message, e.Status)
}

// Session is the provider's answer to a sign-up or sign-in.  Field names
// follow the provider so clients can use the reply as is.
type Session struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

// Accounts manages email/password accounts held by the identity provider.
type Accounts interface {
	Register(ctx context.Context, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	SendVerification(ctx context.Context, idToken string) error
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error
}

// NewAccounts returns the account manager for cfg.Provider.
func NewAccounts(cfg config.IdentityConfig, log logrus.FieldLogger) (Accounts, error) {
	switch cfg.Provider {
	case config.IdentityFirebase:
		return NewFirebaseVerifier(cfg.FirebaseBaseURL, cfg.FirebaseAPIKey, cfg.Timeout, log), nil
	case config.IdentityJWT:
		return nil, ErrAccountsUnsupported
	}
	return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
}
