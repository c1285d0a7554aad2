// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/impulse-events/ticketing/internal/handler"
	"github.com/impulse-events/ticketing/internal/middleware"
)

// Handlers groups the endpoint implementations.
type Handlers struct {
	Health *handler.HealthHandler
	Events *handler.EventHandler
	Orders *handler.OrderHandler
	Users  *handler.UserHandler
	Expect *handler.ExpectHandler
	Auth   *handler.AuthHandler
}

// Middleware carries the chain built from configuration.  Nil entries are
// skipped.
type Middleware struct {
	Logger       echo.MiddlewareFunc // request id, access log, request metrics
	Authenticate echo.MiddlewareFunc // optional bearer token -> current user
	RateLimit    echo.MiddlewareFunc // runs after Authenticate so users get their own bucket
	Cache        echo.MiddlewareFunc // public GET routes only
	APIKeyHash   string
}

func use(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	for _, mw := range mws {
		if mw != nil {
			e.Use(mw)
		}
	}
}

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

// RegisterRoutes registers every endpoint.  Ops endpoints (/healthz,
// /metrics) are logged but sit outside authentication and the rate limiter.
func RegisterRoutes(e *echo.Echo, h Handlers, m Middleware) {
	use(e, m.Logger)
	e.GET("/healthz", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("", chain(m.Authenticate, m.RateLimit)...)
	cached := chain(m.Cache)
	admin := middleware.RequireAdmin(m.APIKeyHash)

	// ---- Accounts ----
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/verify-email", h.Auth.VerifyEmail)
	api.POST("/auth/password-reset", h.Auth.PasswordReset)
	api.POST("/auth/password-reset/confirm", h.Auth.ConfirmPasswordReset)

	// ---- Events ----
	api.POST("/add_event", h.Events.Create, admin)
	api.POST("/events", h.Events.Create, admin)
	api.GET("/events/get/:id", h.Events.Get, cached...)
	api.GET("/events/slug/:slug", h.Events.GetBySlug, cached...)
	api.GET("/s/:slug", h.Events.Redirect)
	api.POST("/events/between", h.Events.Between)
	api.GET("/events/all", h.Events.All, admin)
	api.PATCH("/events/:id", h.Events.Update, admin)
	api.POST("/events/:id/remind", h.Events.Remind, admin)
	api.POST("/events/:id/broadcast", h.Events.Broadcast, admin)

	// ---- Orders ----
	api.POST("/order", h.Orders.Create)
	api.PATCH("/orders/:id", h.Orders.Update, admin)

	// ---- Users ----
	// /users/me is matched before /users/:id since static segments win.
	self := middleware.RequireUser()
	api.GET("/users/me", h.Users.Me, self)
	api.PATCH("/users/me", h.Users.UpdateMe, self)
	api.GET("/users", h.Users.List, admin)
	api.PATCH("/users/:id", h.Users.Update, admin)
	api.DELETE("/users/:id", h.Users.Delete, admin)

	// ---- Suggestions ----
	api.GET("/expect", h.Expect.Expect, cached...)
}
