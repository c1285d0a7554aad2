package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/service"
)

// OrderAPI is implemented by *service.OrderService.
type OrderAPI interface {
    Create(ctx context.Context, in service.OrderInput) (service.CreateOrderResult, error)
    Update(ctx context.Context, id uint64, patch model.OrderPatch) (*model.Order, error)
}

type OrderHandler struct {
    Orders OrderAPI
    Log    logrus.FieldLogger
}

// Create handles POST /order.  The ticket email is sent in the background;
// the response does not wait for it.
func (h *OrderHandler) Create(c echo.Context) error {
    var in service.OrderInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    res, err := h.Orders.Create(ctx, in)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, res)
}

// Update handles PATCH /orders/:id.
func (h *OrderHandler) Update(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    var patch model.OrderPatch
    if err := c.Bind(&patch); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    o, err := h.Orders.Update(ctx, id, patch)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, o)
}
