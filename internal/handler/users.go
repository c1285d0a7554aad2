package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/middleware"
    "github.com/impulse-events/ticketing/internal/model"
)

// UserAPI is implemented by *service.UserService.
type UserAPI interface {
    List(ctx context.Context, f model.UserFilter) ([]model.User, error)
    Update(ctx context.Context, id uint64, patch model.UserPatch) (*model.User, error)
    UpdateProfile(ctx context.Context, id uint64, patch model.UserPatch) (*model.User, error)
    SoftDelete(ctx context.Context, id uint64) (*model.User, error)
}

type UserHandler struct {
    Users UserAPI
    Log   logrus.FieldLogger
}

// List handles GET /users?status=active|deleted.
func (h *UserHandler) List(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    users, err := h.Users.List(ctx, model.UserFilter{Status: c.QueryParam("status")})
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, users)
}

// Update handles PATCH /users/:id.
func (h *UserHandler) Update(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    var patch model.UserPatch
    if err := c.Bind(&patch); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    u, err := h.Users.Update(ctx, id, patch)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /users/:id.  The row stays; only its status changes.
func (h *UserHandler) Delete(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    u, err := h.Users.SoftDelete(ctx, id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, u)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c echo.Context) error {
    u := middleware.CurrentUser(c)
    if u == nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return c.JSON(http.StatusOK, u)
}

// UpdateMe handles PATCH /users/me.  Role and status are ignored.
func (h *UserHandler) UpdateMe(c echo.Context) error {
    u := middleware.CurrentUser(c)
    if u == nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var patch model.UserPatch
    if err := c.Bind(&patch); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    updated, err := h.Users.UpdateProfile(ctx, u.ID, patch)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, updated)
}
