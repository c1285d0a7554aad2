package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/suggest"
)

// Suggester is implemented by *suggest.Suggester.
type Suggester interface {
    Suggest(ctx context.Context, city string) (suggest.Result, error)
}

type ExpectHandler struct {
    Suggester Suggester
    Log       logrus.FieldLogger
}

// Expect handles GET /expect?city=.  A single known event is returned as
// stored; otherwise the language model's pick is passed through.
func (h *ExpectHandler) Expect(c echo.Context) error {
    city := strings.TrimSpace(c.QueryParam("city"))
    if city == "" {
        return badRequest(c, "city is required")
    }
    // The model call is slow; use the request context rather than the
    // default handler deadline.
    res, err := h.Suggester.Suggest(c.Request().Context(), city)
    switch {
    case errors.Is(err, suggest.ErrNotConfigured):
        return badRequest(c, "OpenAI API key is required")
    case errors.Is(err, suggest.ErrBadResponse):
        h.Log.WithError(err).WithField("city", city).Warn("unparseable suggestion")
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to parse AI response as JSON"})
    case err != nil:
        return respondError(c, h.Log, err)
    }
    if res.Event != nil {
        return c.JSON(http.StatusOK, res.Event)
    }
    return c.JSON(http.StatusOK, res.Suggestion)
}
