// Package middleware holds the Echo middleware shared by all routes:
// bearer identity, admin checks, response caching, rate limiting and
// request logging.
package middleware

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/identity"
    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/utils"
)

const (
    userKey      = "user"
    adminViaKey  = "admin_via"
    apiKeyHeader = "X-API-KEY"
)

// UserResolver maps a verified email to a user record, creating it on
// first sight.  *service.UserService implements it.
type UserResolver interface {
    GetOrCreate(ctx context.Context, email string) (*model.User, error)
}

// CurrentUser returns the user attached by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
    u, _ := c.Get(userKey).(*model.User)
    return u
}

func bearerToken(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    return raw, raw != ""
}

// Authenticate verifies an optional bearer token.  Requests without one
// pass through anonymously; an invalid token is rejected with 401.  A
// verified token resolves to a user record stored in the context.
func Authenticate(v identity.Verifier, users UserResolver, log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c)
            if !ok {
                return next(c)
            }
            ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
            defer cancel()

            id, err := v.Verify(ctx, raw)
            if err != nil {
                if errors.Is(err, identity.ErrUnauthorized) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
                }
                log.WithError(err).Warn("identity provider unavailable")
                return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "identity provider unavailable"})
            }
            u, err := users.GetOrCreate(ctx, id.Email)
            if err != nil {
                log.WithError(err).Error("resolve user")
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
            }
            c.Set(userKey, u)
            return next(c)
        }
    }
}

// RequireUser rejects anonymous requests and deleted users.
func RequireUser() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u := CurrentUser(c)
            if u == nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            if u.Status != model.UserStatusActive {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "account deleted"})
            }
            return next(c)
        }
    }
}

// RequireAdmin lets a request through when it carries a valid X-API-KEY or
// belongs to an active admin user.
func RequireAdmin(apiKeyHash string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        byRole := RequireRole(model.RoleAdmin)(next)
        return func(c echo.Context) error {
            if key := c.Request().Header.Get(apiKeyHeader); key != "" {
                if !utils.VerifySecret(apiKeyHash, key) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid api key"})
                }
                c.Set(adminViaKey, "api_key")
                return next(c)
            }
            if CurrentUser(c) == nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "admin credentials required"})
            }
            c.Set(adminViaKey, "user")
            return byRole(c)
        }
    }
}
