package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/impulse-events/ticketing/internal/httpclient"
)

// FirebaseVerifier talks to the Identity Toolkit REST API.  It resolves ID
// tokens (accounts:lookup) and also serves as the Accounts implementation
// for email/password sign-up, sign-in and the out-of-band email flows.
type FirebaseVerifier struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
}

func NewFirebaseVerifier(baseURL, apiKey string, timeout time.Duration, log logrus.FieldLogger) *FirebaseVerifier {
	return &FirebaseVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpclient.New(timeout, 2, log),
	}
}

// call POSTs payload to the named accounts method and decodes a 200 reply
// into out.  Replies of 400 and above become a *ProviderError carrying the
// provider's message; transport failures are wrapped.
func (f *FirebaseVerifier) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := f.baseURL + "/" + method + "?key=" + url.QueryEscape(f.apiKey)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &e)
		msg := e.Error.Message
		if msg == "" {
			msg = "identity provider error"
		}
		return &ProviderError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("identity %s: decode: %w", method, err)
	}
	return nil
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

// Verify returns ErrUnauthorized when the provider rejects the token or the
// account has no email.  Transport failures are returned wrapped.
func (f *FirebaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	var out lookupResponse
	err := f.call(ctx, "accounts:lookup", map[string]string{"idToken": token}, &out)
	var pe *ProviderError
	if errors.As(err, &pe) {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, err
	}
	if len(out.Users) == 0 || out.Users[0].Email == "" {
		return Identity{}, ErrUnauthorized
	}
	u := out.Users[0]
	return Identity{Email: strings.ToLower(u.Email), UID: u.LocalID}, nil
}

func (f *FirebaseVerifier) passwordSession(ctx context.Context, method, email, password string) (Session, error) {
	var s Session
	err := f.call(ctx, method, map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &s)
	return s, err
}

// Register creates the account and sends the address verification email.
func (f *FirebaseVerifier) Register(ctx context.Context, email, password string) (Session, error) {
	s, err := f.passwordSession(ctx, "accounts:signUp", email, password)
	if err != nil {
		return Session{}, err
	}
	if err := f.SendVerification(ctx, s.IDToken); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (f *FirebaseVerifier) Login(ctx context.Context, email, password string) (Session, error) {
	return f.passwordSession(ctx, "accounts:signInWithPassword", email, password)
}

func (f *FirebaseVerifier) SendVerification(ctx context.Context, idToken string) error {
	return f.call(ctx, "accounts:sendOobCode", map[string]string{
		"requestType": "VERIFY_EMAIL",
		"idToken":     idToken,
	}, nil)
}

func (f *FirebaseVerifier) SendPasswordReset(ctx context.Context, email string) error {
	return f.call(ctx, "accounts:sendOobCode", map[string]string{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

func (f *FirebaseVerifier) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	return f.call(ctx, "accounts:resetPassword", map[string]string{
		"oobCode":     oobCode,
		"newPassword": newPassword,
	}, nil)
}
