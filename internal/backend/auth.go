package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/galleyapp/galley/internal/entities"
)

// signUpResponse covers both sign-up outcomes: a full token grant when the
// backend auto-confirms accounts, or a bare user record when email
// confirmation is pending.
type signUpResponse struct {
	entities.Session
	// Bare-user shape (confirmation pending)
	ID    string `json:"id"`
	Email string `json:"email"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// withExpiry stamps the wall-clock expiry derived from expires_in.
func withExpiry(s *entities.Session) *entities.Session {
	if s != nil && s.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return s
}

// SignUp registers a new account. When the backend requires email
// confirmation it creates the user without a session; that case is reported
// as ErrConfirmationRequired rather than success, so callers can tell the
// user to check their inbox.
func (c *Client) SignUp(ctx context.Context, email, password string) (*entities.Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/signup", nil, "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var resp signUpResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		return nil, ErrConfirmationRequired
	}
	return withExpiry(&resp.Session), nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*entities.Session, error) {
	query := url.Values{"grant_type": {"password"}}
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/token", query, "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var session entities.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return withExpiry(&session), nil
}

// RefreshSession exchanges a refresh token for a new session. The backend
// rotates the refresh token on every grant, so callers must persist the
// returned pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*entities.Session, error) {
	query := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/token", query, "", body)
	if err != nil {
		return nil, err
	}

	var session entities.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return withExpiry(&session), nil
}

// SignOut revokes the session's refresh token server-side. The access token
// stays technically valid until expiry; discarding the local session is the
// caller's job.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/logout", nil, accessToken, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// ResetPasswordForEmail asks the backend to send a password recovery email.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/recover", nil, "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Health probes the auth service's health endpoint with the anon key. A
// nil error means the backend answered.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, authPath+"/health", nil, "", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// GetUser fetches the user record behind an access token. A 401/403 means
// the token is no longer valid.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*entities.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, authPath+"/user", nil, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var user entities.User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
