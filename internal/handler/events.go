package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/service"
)

// EventAPI is implemented by *service.EventService.
type EventAPI interface {
    Create(ctx context.Context, in service.EventInput) (service.CreateEventResult, error)
    GetByID(ctx context.Context, id uint64) (*model.Event, error)
    GetBySlug(ctx context.Context, slug string) (*model.Event, error)
    Resolve(ctx context.Context, slug string) (string, error)
    ListBetween(ctx context.Context, start, end *time.Time, limit int) ([]model.Event, error)
    ListAll(ctx context.Context) ([]model.Event, error)
    Update(ctx context.Context, id uint64, patch model.EventPatch) (*model.Event, error)
}

// BroadcastAPI is implemented by *service.BroadcastService.
type BroadcastAPI interface {
    SendEventReminder(ctx context.Context, eventID uint64) (service.ReminderResult, error)
    SendEventCreatedBroadcast(ctx context.Context, eventID uint64) (service.BroadcastResult, error)
}

// EventHandler serves event endpoints.
type EventHandler struct {
    Events     EventAPI
    Broadcasts BroadcastAPI
    Log        logrus.FieldLogger
}

// Create handles POST /add_event and POST /events.
func (h *EventHandler) Create(c echo.Context) error {
    var in service.EventInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    res, err := h.Events.Create(ctx, in)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, res)
}

// Get handles GET /events/get/:id.
func (h *EventHandler) Get(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    e, err := h.Events.GetByID(ctx, id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, e)
}

// GetBySlug handles GET /events/slug/:slug.
func (h *EventHandler) GetBySlug(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    e, err := h.Events.GetBySlug(ctx, c.Param("slug"))
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, e)
}

// Redirect handles GET /s/:slug by sending the client to the event page.
func (h *EventHandler) Redirect(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    dest, err := h.Events.Resolve(ctx, c.Param("slug"))
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.Redirect(http.StatusFound, dest)
}

// Between handles POST /events/between?limit=N with an optional
// {"start": ..., "end": ...} body.
func (h *EventHandler) Between(c echo.Context) error {
    var body struct {
        Start *model.Timestamp `json:"start"`
        End   *model.Timestamp `json:"end"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    limit := 0
    if s := c.QueryParam("limit"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 0 {
            return badRequest(c, "invalid limit")
        }
        limit = n
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    var start, end *time.Time
    if body.Start != nil {
        start = &body.Start.Time
    }
    if body.End != nil {
        end = &body.End.Time
    }
    events, err := h.Events.ListBetween(ctx, start, end, limit)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, events)
}

// All handles GET /events/all.
func (h *EventHandler) All(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    events, err := h.Events.ListAll(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, events)
}

// Update handles PATCH /events/:id.
func (h *EventHandler) Update(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    var patch model.EventPatch
    if err := c.Bind(&patch); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    e, err := h.Events.Update(ctx, id, patch)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, e)
}

// Remind handles POST /events/:id/remind.  Sends run inside the request,
// so it gets a longer deadline than other calls.
func (h *EventHandler) Remind(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    res, err := h.Broadcasts.SendEventReminder(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Broadcast handles POST /events/:id/broadcast.
func (h *EventHandler) Broadcast(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    res, err := h.Broadcasts.SendEventCreatedBroadcast(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, res)
}
