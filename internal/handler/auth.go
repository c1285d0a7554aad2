package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/identity"
    "github.com/impulse-events/ticketing/internal/model"
)

// minPasswordLen matches the identity provider's own minimum.
const minPasswordLen = 6

// UserProvisioner is implemented by *service.UserService.
type UserProvisioner interface {
    GetOrCreate(ctx context.Context, email string) (*model.User, error)
}

// AuthHandler fronts the identity provider's email/password account flows.
// Accounts is nil when the configured provider only verifies tokens.
type AuthHandler struct {
    Accounts identity.Accounts
    Users    UserProvisioner
    Log      logrus.FieldLogger
}

type credentials struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

func (b *credentials) normalize() {
    b.Email = strings.ToLower(strings.TrimSpace(b.Email))
}

// accountError maps provider refusals to 400 with the provider's message
// and everything else to 503.
func (h *AuthHandler) accountError(c echo.Context, err error) error {
    var pe *identity.ProviderError
    if errors.As(err, &pe) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": pe.Message})
    }
    h.Log.WithError(err).WithField("path", c.Path()).Warn("identity provider unavailable")
    return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "identity provider unavailable"})
}

func (h *AuthHandler) unsupported(c echo.Context) error {
    return c.JSON(http.StatusNotImplemented, echo.Map{"error": "account management is not enabled"})
}

// Register handles POST /auth/register.  The account is created at the
// provider, a verification email goes out, and the local user record is
// created right away instead of on first authenticated request.
func (h *AuthHandler) Register(c echo.Context) error {
    if h.Accounts == nil {
        return h.unsupported(c)
    }
    var body credentials
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    body.normalize()
    if body.Email == "" || !strings.Contains(body.Email, "@") {
        return badRequest(c, "email is required")
    }
    if len(body.Password) < minPasswordLen {
        return badRequest(c, "password must be at least 6 characters")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    s, err := h.Accounts.Register(ctx, body.Email, body.Password)
    if err != nil {
        return h.accountError(c, err)
    }
    // The account exists at the provider either way; a missing local row is
    // recreated by GetOrCreate on the first authenticated request.
    if _, err := h.Users.GetOrCreate(ctx, body.Email); err != nil {
        h.Log.WithError(err).WithField("email", body.Email).Warn("registered account but user record not created")
    }
    return c.JSON(http.StatusOK, s)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
    if h.Accounts == nil {
        return h.unsupported(c)
    }
    var body credentials
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    body.normalize()
    if body.Email == "" || body.Password == "" {
        return badRequest(c, "email and password are required")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    s, err := h.Accounts.Login(ctx, body.Email, body.Password)
    if err != nil {
        return h.accountError(c, err)
    }
    return c.JSON(http.StatusOK, s)
}

// VerifyEmail handles POST /auth/verify-email.  Clients send either an
// id_token or their email and password, in which case they are signed in
// first to obtain one.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
    if h.Accounts == nil {
        return h.unsupported(c)
    }
    var body struct {
        IDToken  string `json:"id_token"`
        Email    string `json:"email"`
        Password string `json:"password"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    token := body.IDToken
    if token == "" {
        if body.Email == "" || body.Password == "" {
            return badRequest(c, "id_token or email and password are required")
        }
        s, err := h.Accounts.Login(ctx, strings.ToLower(strings.TrimSpace(body.Email)), body.Password)
        if err != nil {
            return h.accountError(c, err)
        }
        token = s.IDToken
    }
    if err := h.Accounts.SendVerification(ctx, token); err != nil {
        return h.accountError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "sent"})
}

// PasswordReset handles POST /auth/password-reset.
func (h *AuthHandler) PasswordReset(c echo.Context) error {
    if h.Accounts == nil {
        return h.unsupported(c)
    }
    var body credentials
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    body.normalize()
    if body.Email == "" {
        return badRequest(c, "email is required")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Accounts.SendPasswordReset(ctx, body.Email); err != nil {
        return h.accountError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "sent"})
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
    if h.Accounts == nil {
        return h.unsupported(c)
    }
    var body struct {
        OOBCode     string `json:"oob_code"`
        NewPassword string `json:"new_password"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    if body.OOBCode == "" {
        return badRequest(c, "oob_code is required")
    }
    if len(body.NewPassword) < minPasswordLen {
        return badRequest(c, "new_password must be at least 6 characters")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Accounts.ConfirmPasswordReset(ctx, body.OOBCode, body.NewPassword); err != nil {
        return h.accountError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "reset"})
}
