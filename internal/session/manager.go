package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/galleyapp/galley/internal/backend"
	"github.com/galleyapp/galley/internal/config"
	"github.com/galleyapp/galley/internal/entities"
)

// ErrAuthUnavailable is returned by every operation when the backend client
// could not be constructed (missing configuration). The application keeps
// serving; only authentication is disabled.
var ErrAuthUnavailable = errors.New("authentication is not available")

// refreshMargin refreshes access tokens slightly before their stamped
// expiry so a token never dies mid-request.
const refreshMargin = 30 * time.Second

// Metrics receives refresh outcomes and backend transport failures from
// the manager. Implemented by the metrics collector; a nil Metrics
// disables recording.
type Metrics interface {
	RecordSessionRefresh(outcome string)
	RecordBackendFailure()
}

// Manager is the authentication context for the application: it owns the
// backend auth client and the cookie codec, and is the only component that
// writes session state. It is constructed once at startup and injected into
// the router; per-request state lives in the Store it resolves.
type Manager struct {
	client  *backend.Client
	cookies CookieCodec
	metrics Metrics
}

// NewManager creates the manager. A nil client puts the manager into the
// degraded "authentication unavailable" mode required when backend
// credentials are missing.
func NewManager(client *backend.Client, cfg config.Cookies) *Manager {
	return &Manager{
		client:  client,
		cookies: NewCookieCodec(cfg),
	}
}

// SetMetrics attaches a metrics sink for refresh outcomes.
func (m *Manager) SetMetrics(metrics Metrics) {
	m.metrics = metrics
}

func (m *Manager) recordRefresh(outcome string) {
	if m.metrics != nil {
		m.metrics.RecordSessionRefresh(outcome)
	}
}

// recordBackendFailure counts transport-level failures only; an API error
// is the backend answering, not the backend failing.
func (m *Manager) recordBackendFailure(err error) {
	var transportErr *backend.TransportError
	if m.metrics != nil && errors.As(err, &transportErr) {
		m.metrics.RecordBackendFailure()
	}
}

// Available reports whether authentication is operational.
func (m *Manager) Available() bool {
	return m.client != nil
}

// Cookies exposes the codec so the HTTP layer can subscribe cookie writes
// to store changes.
func (m *Manager) Cookies() CookieCodec {
	return m.cookies
}

// Resolve performs the initial session resolution for a request: validate
// the access token from the cookies, refreshing through the backend when it
// is expired or rejected. Exactly one of Set/Fail is called on the store,
// ending its loading state. A refresh rotates the token pair, so the
// resulting session reaches the response cookies through the store's
// subscribers.
//
// Resolution errors are deliberately not returned: the caller proceeds
// unauthenticated and the enforcement layers treat the request as
// anonymous.
func (m *Manager) Resolve(ctx context.Context, store *Store, tokens Tokens, present bool) {
	if m.client == nil || !present {
		store.Fail()
		return
	}

	session := tokensToSession(tokens)
	if tokens.AccessToken != "" && !session.Expired(refreshMargin) {
		user, err := m.client.GetUser(ctx, tokens.AccessToken)
		if err == nil {
			session.User = user
			store.Set(session)
			return
		}
		m.recordBackendFailure(err)
		// Fall through to a refresh attempt; the token may have been
		// revoked or the expiry cookie may be stale.
	}

	if tokens.RefreshToken == "" {
		store.Fail()
		return
	}

	refreshed, err := m.client.RefreshSession(ctx, tokens.RefreshToken)
	if err != nil {
		log.Printf("session refresh failed: %v", err)
		m.recordRefresh("failure")
		m.recordBackendFailure(err)
		store.Fail()
		return
	}
	m.recordRefresh("success")
	store.Set(refreshed)
}

// SignUp registers an account and, when the backend issues a session
// immediately, signs the store in. backend.ErrConfirmationRequired is
// passed through: the account exists but cannot sign in yet.
func (m *Manager) SignUp(ctx context.Context, store *Store, email, password string) error {
	if m.client == nil {
		return ErrAuthUnavailable
	}

	session, err := m.client.SignUp(ctx, email, password)
	if err != nil {
		m.recordBackendFailure(err)
		return err
	}
	store.Set(session)
	return nil
}

// SignIn exchanges credentials for a session and updates the store.
func (m *Manager) SignIn(ctx context.Context, store *Store, email, password string) error {
	if m.client == nil {
		return ErrAuthUnavailable
	}

	session, err := m.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.recordBackendFailure(err)
		return err
	}
	store.Set(session)
	return nil
}

// SignOut revokes the session best-effort. Provider failures are logged and
// swallowed: whatever the backend says, the local state ends up signed out.
// This is a documented policy (a user clicking "log out" must always end up
// logged out locally), not an accidental catch-all.
func (m *Manager) SignOut(ctx context.Context, store *Store) {
	state := store.State()
	if m.client != nil && state.Session != nil {
		if err := m.client.SignOut(ctx, state.Session.AccessToken); err != nil {
			log.Printf("sign-out failed (ignored): %v", err)
			m.recordBackendFailure(err)
		}
	}
	store.Set(nil)
}

// ResetPassword asks the backend to send a recovery email.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if m.client == nil {
		return ErrAuthUnavailable
	}
	return m.client.ResetPasswordForEmail(ctx, email)
}

func tokensToSession(tokens Tokens) *entities.Session {
	return &entities.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
}
