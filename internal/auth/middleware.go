package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/routes"
	"github.com/galleyapp/galley/internal/session"
)

// Context keys for the resolved session state.
const (
	ContextKeyState = "auth_state"
	ContextKeyStore = "auth_store"
)

// Middleware resolves the session carried in request cookies and applies
// the route access policy at the edge, before any page handler runs.
type Middleware struct {
	manager *session.Manager
}

// NewMiddleware creates the auth middleware around the session manager.
func NewMiddleware(manager *session.Manager) *Middleware {
	return &Middleware{manager: manager}
}

// resolve creates the request's session store, wires cookie persistence to
// its change events and performs the initial resolution. The returned
// cleanup closes the store so that nothing mutates state after the request
// is done.
func (m *Middleware) resolve(c *gin.Context) (session.State, func()) {
	codec := m.manager.Cookies()
	tokens, present := codec.Read(c.Request)

	store := session.NewStore()

	// Any session change during the request reaches the response cookies
	// through this subscription: a refresh rotates the pair, a sign-out
	// clears it.
	cancel := store.Subscribe(func(st session.State) {
		if st.Session != nil {
			codec.Write(c.Writer, st.Session)
		} else if present {
			codec.Clear(c.Writer)
		}
	})

	m.manager.Resolve(c.Request.Context(), store, tokens, present)

	state := store.State()
	c.Set(ContextKeyState, state)
	c.Set(ContextKeyStore, store)

	return state, func() {
		cancel()
		store.Close()
	}
}

// ensureResolved returns the request's auth state, resolving it on first
// use. The cleanup is a no-op when resolution already happened upstream.
func (m *Middleware) ensureResolved(c *gin.Context) (session.State, func()) {
	if state, ok := StateFromContext(c); ok {
		return state, func() {}
	}
	return m.resolve(c)
}

// Handler returns the edge middleware. Paths outside the shared route
// table pass through without touching the session at all; classified paths
// get a session resolution (which may refresh and rotate tokens) and the
// redirect policy applied.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		class := routes.Classify(c.Request.URL.Path)
		if !class.Handled() {
			c.Next()
			return
		}

		state, cleanup := m.resolve(c)
		defer cleanup()

		if class.IsProtectedRoute && !state.Authenticated() {
			redirectToLogin(c, c.Request.URL.Path)
			return
		}
		if class.IsAuthRoute && state.Authenticated() {
			c.Redirect(http.StatusFound, routes.DashboardPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Resolver returns a route-level middleware that resolves the session
// without enforcing anything. Pages outside the classified set (home,
// recipe detail, the social endpoints) use it to know who is asking.
func (m *Middleware) Resolver() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, cleanup := m.ensureResolved(c)
		defer cleanup()
		c.Next()
	}
}

// StateFromContext returns the resolved auth state for the request, when a
// resolving middleware has run.
func StateFromContext(c *gin.Context) (session.State, bool) {
	v, exists := c.Get(ContextKeyState)
	if !exists {
		return session.State{}, false
	}
	state, ok := v.(session.State)
	return state, ok
}

// StoreFromContext returns the request's session store, for handlers that
// change auth state (login, logout).
func StoreFromContext(c *gin.Context) (*session.Store, bool) {
	v, exists := c.Get(ContextKeyStore)
	if !exists {
		return nil, false
	}
	store, ok := v.(*session.Store)
	return store, ok
}

// CurrentUserID returns the authenticated user's id, or "" for anonymous
// requests.
func CurrentUserID(c *gin.Context) string {
	state, ok := StateFromContext(c)
	if !ok || !state.Authenticated() {
		return ""
	}
	return state.User.ID
}

// AccessToken returns the access token authorizing backend data calls on
// behalf of the request's user, or "" for anonymous requests.
func AccessToken(c *gin.Context) string {
	state, ok := StateFromContext(c)
	if !ok || !state.Authenticated() {
		return ""
	}
	return state.Session.AccessToken
}

// redirectToLogin bounces to the auth page, preserving the originally
// requested path.
func redirectToLogin(c *gin.Context, from string) {
	target := routes.AuthPath + "?" + routes.RedirectToParam + "=" + url.QueryEscape(from)
	c.Redirect(http.StatusFound, target)
	c.Abort()
}
