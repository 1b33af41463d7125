package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/routes"
)

// RequireAuth is the per-route guard for protected pages. It redirects
// anonymous requests to the auth page, carrying the original path so the
// login flow can return the user there. Resolution is a no-op when the
// edge middleware already ran for this request.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, cleanup := m.ensureResolved(c)
		defer cleanup()

		if !state.Authenticated() {
			redirectToLogin(c, c.Request.URL.Path)
			return
		}

		c.Next()
	}
}

// RequireAnon is the per-route guard for public-only pages (the auth
// forms). Authenticated users are sent to their dashboard instead.
func (m *Middleware) RequireAnon() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, cleanup := m.ensureResolved(c)
		defer cleanup()

		if state.Authenticated() {
			c.Redirect(http.StatusFound, routes.DashboardPath)
			c.Abort()
			return
		}

		c.Next()
	}
}
