// Package identity verifies bearer tokens issued by an external identity
// provider and resolves them to an email address.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/impulse-events/ticketing/internal/config"
)

// ErrUnauthorized is returned when a token is rejected for any reason.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the verified subject of a token.
type Identity struct {
	Email string
	UID   string
}

// Verifier checks a bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// New returns the verifier selected by cfg.Provider.
func New(cfg config.IdentityConfig, log logrus.FieldLogger) (Verifier, error) {
	switch cfg.Provider {
	case config.IdentityFirebase:
		return NewFirebaseVerifier(cfg.FirebaseBaseURL, cfg.FirebaseAPIKey, cfg.Timeout, log), nil
	case config.IdentityJWT:
		return NewJWTVerifier(cfg.JWTSecret), nil
	}
	return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
}
