package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/auth"
	"github.com/galleyapp/galley/internal/session"
)

// SettingsController serves the account settings page.
type SettingsController struct {
	manager *session.Manager
	pages   pageRenderer
}

func NewSettingsController(manager *session.Manager, templatesPath string) *SettingsController {
	return &SettingsController{
		manager: manager,
		pages:   newPageRenderer(templatesPath, "settings"),
	}
}

// Page renders account settings.
func (sc *SettingsController) Page(c *gin.Context) {
	sc.pages.render(c, http.StatusOK, "settings.html", gin.H{
		"Title":     "Settings",
		"User":      currentUser(c),
		"CSRFToken": auth.GetCSRFToken(c),
		"Notice":    c.Query("notice"),
		"Error":     c.Query("error"),
	})
}

// RequestPasswordReset emails the signed-in user a password reset link
// through the backend.
func (sc *SettingsController) RequestPasswordReset(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/auth")
		return
	}

	if err := sc.manager.ResetPassword(c.Request.Context(), user.Email); err != nil {
		c.Redirect(http.StatusFound, "/settings?error=Could+not+send+the+reset+email.")
		return
	}

	c.Redirect(http.StatusFound, "/settings?notice=Password+reset+email+sent.")
}
