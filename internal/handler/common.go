// Package handler exposes the HTTP endpoints.  Handlers only translate
// between HTTP and the service layer: they bind input, call one service
// operation and map its errors to status codes.
package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/repository"
    "github.com/impulse-events/ticketing/internal/service"
)

// requestTimeout bounds the service call of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func parseID(c echo.Context) (uint64, error) {
    return strconv.ParseUint(c.Param("id"), 10, 64)
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// respondError maps service and store errors onto HTTP responses.
// Unexpected errors are logged and reported as 500 without detail.
func respondError(c echo.Context, log logrus.FieldLogger, err error) error {
    var ve *service.ValidationError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error(), "field": ve.Field})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, service.ErrCreationExhausted):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not allocate a unique slug, try again"})
    case errors.Is(err, context.DeadlineExceeded):
        log.WithError(err).WithField("path", c.Path()).Warn("request timed out")
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
    }
    log.WithError(err).WithField("path", c.Path()).Error("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
