package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/impulse-events/ticketing/internal/model"
)

// RequireRole enforces that the authenticated user is active and holds one
// of the given roles.  It must run after Authenticate.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u := CurrentUser(c)
            if u == nil || u.Status != model.UserStatusActive || !allowed[u.Role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
