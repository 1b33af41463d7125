package auth

import (
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/backend"
	"github.com/galleyapp/galley/internal/config"
	"github.com/galleyapp/galley/internal/routes"
	"github.com/galleyapp/galley/internal/session"
)

// isLocalPath validates that a redirect path is local to prevent open
// redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}

	// Must start with /
	if !strings.HasPrefix(path, "/") {
		return false
	}

	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}

	// Reject URLs with schemes
	if strings.Contains(path, "://") {
		return false
	}

	// Reject paths with backslashes (potential bypass attempts)
	if strings.Contains(path, "\\") {
		return false
	}

	return true
}

// SafeLocalPath returns path when it is a local path, fallback otherwise.
// Every redirect built from request-supplied input goes through here.
func SafeLocalPath(path, fallback string) string {
	if isLocalPath(path) {
		return path
	}
	return fallback
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to the
// dashboard if invalid.
func sanitizeRedirectPath(path string) string {
	return SafeLocalPath(path, routes.DashboardPath)
}

// AuthMetrics receives auth form outcomes. Implemented by the metrics
// collector; nil disables recording.
type AuthMetrics interface {
	RecordAuthAttempt(operation, outcome string)
}

// Controller handles the authentication pages and form submissions.
type Controller struct {
	manager   *session.Manager
	templates *template.Template
	limiter   *LoginLimiter
	requests  *RequestLimiter
	metrics   AuthMetrics
}

// NewController creates the auth controller. Missing templates are not an
// error; responses fall back to JSON, which is what the tests exercise.
func NewController(manager *session.Manager, templatesPath string, rateCfg config.RateLimit) *Controller {
	pattern := filepath.Join(templatesPath, "auth", "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		tmpl = nil
	}

	return &Controller{
		manager:   manager,
		templates: tmpl,
		limiter:   NewLoginLimiter(rateCfg),
		requests:  NewRequestLimiter(rateCfg.RequestsPerMin),
	}
}

// RegisterRoutes registers the auth routes. The edge middleware already
// resolves sessions for the classified auth paths; logout lives outside
// the classified set, so it gets its own resolver.
func (ctrl *Controller) RegisterRoutes(router *gin.Engine, mw *Middleware) {
	router.GET(routes.AuthPath, ctrl.AuthPage)
	router.GET("/auth/login", ctrl.LoginPage)
	router.GET("/auth/signup", ctrl.SignupPage)
	router.GET("/auth/reset", mw.Resolver(), ctrl.ResetPage)

	// Every auth POST pays the per-IP rate; login and signup additionally
	// go through the per-account lockout.
	perIP := ctrl.requests.Middleware()
	router.POST("/auth/login", perIP, ctrl.limiter.Middleware(), ctrl.Login)
	router.POST("/auth/signup", perIP, ctrl.limiter.Middleware(), ctrl.Signup)
	router.POST("/auth/reset", perIP, mw.Resolver(), ctrl.Reset)
	router.POST("/auth/logout", perIP, mw.Resolver(), ctrl.Logout)
}

// SetMetrics attaches a metrics sink for auth outcomes.
func (ctrl *Controller) SetMetrics(metrics AuthMetrics) {
	ctrl.metrics = metrics
}

func (ctrl *Controller) record(operation, outcome string) {
	if ctrl.metrics != nil {
		ctrl.metrics.RecordAuthAttempt(operation, outcome)
	}
}

// Stop cleans up the rate limiters' background goroutines.
func (ctrl *Controller) Stop() {
	if ctrl.limiter != nil {
		ctrl.limiter.Stop()
	}
	if ctrl.requests != nil {
		ctrl.requests.Stop()
	}
}

// AuthPage renders the combined auth page, defaulting to the login tab.
func (ctrl *Controller) AuthPage(c *gin.Context) {
	ctrl.renderTemplate(c, "auth.html", gin.H{
		"Title":      "Sign in",
		"RedirectTo": sanitizeRedirectPath(c.Query(routes.RedirectToParam)),
		"CSRFToken":  GetCSRFToken(c),
		"Error":      c.Query("error"),
		"Notice":     c.Query("notice"),
	})
}

// LoginPage renders the login form.
func (ctrl *Controller) LoginPage(c *gin.Context) {
	ctrl.renderTemplate(c, "login.html", gin.H{
		"Title":      "Sign in",
		"RedirectTo": sanitizeRedirectPath(c.Query(routes.RedirectToParam)),
		"CSRFToken":  GetCSRFToken(c),
		"Error":      c.Query("error"),
		"Notice":     c.Query("notice"),
	})
}

// SignupPage renders the signup form.
func (ctrl *Controller) SignupPage(c *gin.Context) {
	ctrl.renderTemplate(c, "signup.html", gin.H{
		"Title":     "Create account",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// ResetPage renders the password reset request form.
func (ctrl *Controller) ResetPage(c *gin.Context) {
	ctrl.renderTemplate(c, "reset.html", gin.H{
		"Title":     "Reset password",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
		"Notice":    c.Query("notice"),
	})
}

// Login handles the login form submission.
func (ctrl *Controller) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	redirectTo := sanitizeRedirectPath(c.PostForm(routes.RedirectToParam))
	clientIP := c.ClientIP()

	if email == "" || password == "" {
		ctrl.loginError(c, http.StatusBadRequest, email, redirectTo, "Email and password are required.")
		return
	}

	store, ok := StoreFromContext(c)
	if !ok {
		store = session.NewStore()
		defer store.Close()
	}

	if err := ctrl.manager.SignIn(c.Request.Context(), store, email, password); err != nil {
		ctrl.limiter.RecordFailure(clientIP, email)
		ctrl.record("login", "failure")
		ctrl.loginError(c, http.StatusUnauthorized, email, redirectTo, backend.UserMessage(err))
		return
	}

	ctrl.limiter.RecordSuccess(clientIP, email)
	ctrl.record("login", "success")
	c.Redirect(http.StatusFound, redirectTo)
}

func (ctrl *Controller) loginError(c *gin.Context, status int, email, redirectTo, message string) {
	c.Status(status)
	ctrl.renderTemplate(c, "login.html", gin.H{
		"Title":      "Sign in",
		"Email":      email,
		"RedirectTo": redirectTo,
		"CSRFToken":  GetCSRFToken(c),
		"Error":      message,
	})
}

// Signup handles the signup form submission. Depending on the backend's
// confirmation settings the user either gets a session immediately or a
// notice to check their inbox.
func (ctrl *Controller) Signup(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	if email == "" || password == "" {
		ctrl.signupError(c, http.StatusBadRequest, email, "Email and password are required.")
		return
	}
	if password != confirmPassword {
		ctrl.signupError(c, http.StatusBadRequest, email, "Passwords do not match.")
		return
	}

	store, ok := StoreFromContext(c)
	if !ok {
		store = session.NewStore()
		defer store.Close()
	}

	err := ctrl.manager.SignUp(c.Request.Context(), store, email, password)
	if errors.Is(err, backend.ErrConfirmationRequired) {
		ctrl.record("signup", "confirmation_required")
		c.Redirect(http.StatusFound, routes.AuthPath+"?notice="+
			"Check+your+email+to+confirm+your+account.")
		return
	}
	if err != nil {
		ctrl.record("signup", "failure")
		ctrl.signupError(c, http.StatusUnprocessableEntity, email, backend.UserMessage(err))
		return
	}

	ctrl.record("signup", "success")
	c.Redirect(http.StatusFound, routes.DashboardPath)
}

func (ctrl *Controller) signupError(c *gin.Context, status int, email, message string) {
	c.Status(status)
	ctrl.renderTemplate(c, "signup.html", gin.H{
		"Title":     "Create account",
		"Email":     email,
		"CSRFToken": GetCSRFToken(c),
		"Error":     message,
	})
}

// Reset handles the password reset request. It always reports success so
// the form cannot be used to probe which addresses have accounts.
func (ctrl *Controller) Reset(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		c.Status(http.StatusBadRequest)
		ctrl.renderTemplate(c, "reset.html", gin.H{
			"Title":     "Reset password",
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Email is required.",
		})
		return
	}

	_ = ctrl.manager.ResetPassword(c.Request.Context(), email)

	c.Redirect(http.StatusFound, "/auth/reset?notice="+
		"If+an+account+exists+for+that+address%2C+a+reset+link+is+on+its+way.")
}

// Logout signs the user out. The provider call is best-effort inside the
// manager; the local session is always cleared.
func (ctrl *Controller) Logout(c *gin.Context) {
	store, ok := StoreFromContext(c)
	if !ok {
		store = session.NewStore()
		defer store.Close()
		// No resolver ran, so nothing will clear the cookies for us.
		ctrl.manager.Cookies().Clear(c.Writer)
	}

	ctrl.manager.SignOut(c.Request.Context(), store)
	c.Redirect(http.StatusFound, "/")
}

// renderTemplate renders an auth template or falls back to JSON. Every
// auth page gets the ready-made CSRF form field alongside the raw token.
func (ctrl *Controller) renderTemplate(c *gin.Context, name string, data gin.H) {
	data["CSRFField"] = CSRFTokenField(c)

	if ctrl.templates == nil {
		c.JSON(c.Writer.Status(), data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ctrl.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}
