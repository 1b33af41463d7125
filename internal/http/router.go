package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/galleyapp/galley/internal/auth"
	"github.com/galleyapp/galley/internal/config"
	"github.com/galleyapp/galley/internal/metrics"
	"github.com/galleyapp/galley/internal/session"
	"github.com/galleyapp/galley/internal/store/profiles"
	"github.com/galleyapp/galley/internal/store/recipes"
	"github.com/galleyapp/galley/internal/store/social"
)

// RouterConfig carries the router's dependencies. Repositories are nil
// when the backend is not configured; the data routes are then not mounted
// and only the health endpoint, static files and the (degraded) auth pages
// remain.
type RouterConfig struct {
	Manager  *session.Manager
	Recipes  *recipes.Repository
	Profiles *profiles.Repository
	Social   *social.Repository

	Collector *metrics.Collector
	Registry  *prometheus.Registry

	CSRFSecret    []byte
	SecureCookies bool
	RateLimit     config.RateLimit
	TemplatesPath string
	StaticPath    string
	Version       string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		// HTTPS-only deployment: advertise HSTS as well.
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	if cfg.Collector != nil {
		router.Use(cfg.Collector.Middleware())
	}

	// CSRF must wrap the request before the session middleware so the
	// token survives the request replacement.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session resolution and the route access policy at the edge.
	mw := auth.NewMiddleware(cfg.Manager)
	router.Use(mw.Handler())

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	// Auth pages and forms.
	authController := auth.NewController(cfg.Manager, cfg.TemplatesPath, cfg.RateLimit)
	if cfg.Collector != nil {
		authController.SetMetrics(cfg.Collector)
	}
	authController.RegisterRoutes(router, mw)

	// Health and metrics.
	health := NewHealthController(cfg.Manager, cfg.Version)
	router.GET("/health", health.Status)
	if cfg.Registry != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Registry)))
	}

	if cfg.Recipes == nil {
		return router
	}

	recipesController := NewRecipesController(cfg.Recipes, cfg.Social, cfg.Profiles, cfg.TemplatesPath)
	socialController := NewSocialController(cfg.Social)
	dashboardController := NewDashboardController(cfg.Recipes, cfg.Social, cfg.TemplatesPath)
	savedController := NewSavedController(cfg.Recipes, cfg.Social, cfg.TemplatesPath)
	profileController := NewProfileController(cfg.Profiles, cfg.Recipes, cfg.TemplatesPath)
	settingsController := NewSettingsController(cfg.Manager, cfg.TemplatesPath)

	// Public pages. The resolver makes the signed-in user available
	// without gating access.
	router.GET("/", mw.Resolver(), recipesController.BrowsePage)
	router.GET("/recipes", mw.Resolver(), recipesController.BrowsePage)
	router.GET("/recipes/:id", mw.Resolver(), recipesController.DetailPage)

	// Recipe management. /recipes/create is also enforced at the edge;
	// the guard keeps it protected on its own.
	router.GET("/recipes/create", mw.RequireAuth(), recipesController.CreatePage)
	router.POST("/recipes", mw.RequireAuth(), recipesController.Create)
	router.GET("/recipes/:id/edit", mw.RequireAuth(), recipesController.EditPage)
	router.POST("/recipes/:id", mw.RequireAuth(), recipesController.Update)
	router.POST("/recipes/:id/delete", mw.RequireAuth(), recipesController.Delete)
	router.POST("/recipes/:id/publish", mw.RequireAuth(), recipesController.TogglePublish)

	// Social actions.
	router.POST("/recipes/:id/comments", mw.RequireAuth(), socialController.AddComment)
	router.POST("/comments/:commentID/delete", mw.RequireAuth(), socialController.DeleteComment)
	router.POST("/recipes/:id/like", mw.RequireAuth(), socialController.Like)
	router.POST("/recipes/:id/unlike", mw.RequireAuth(), socialController.Unlike)

	// Protected sections.
	router.GET("/dashboard", mw.RequireAuth(), dashboardController.Page)
	router.GET("/saved", mw.RequireAuth(), savedController.Page)
	router.GET("/profile", mw.RequireAuth(), profileController.Page)
	router.POST("/profile", mw.RequireAuth(), profileController.Update)
	router.GET("/settings", mw.RequireAuth(), settingsController.Page)
	router.POST("/settings/reset-password", mw.RequireAuth(), settingsController.RequestPasswordReset)

	return router
}
