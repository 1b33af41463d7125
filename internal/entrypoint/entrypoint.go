package entrypoint

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/galleyapp/galley/internal/backend"
	"github.com/galleyapp/galley/internal/config"
	http_controllers "github.com/galleyapp/galley/internal/http"
	"github.com/galleyapp/galley/internal/metrics"
	"github.com/galleyapp/galley/internal/security"
	"github.com/galleyapp/galley/internal/session"
	"github.com/galleyapp/galley/internal/store/profiles"
	"github.com/galleyapp/galley/internal/store/recipes"
	"github.com/galleyapp/galley/internal/store/social"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// CheckBackend probes the configured backend and reports reachability. It
// is the connectivity check behind the check-backend command.
func CheckBackend(cfg *config.Config) error {
	if !cfg.IsBackendConfigured() {
		return backend.ErrNotConfigured
	}

	client, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey, cfg.Backend.Timeout)
	if err != nil {
		return err
	}

	timeout := cfg.Backend.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("backend at %s did not answer: %w", client.BaseURL(), err)
	}

	log.Printf("Backend at %s is reachable", client.BaseURL())
	return nil
}

// Run wires the application together and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Galley v%s", version)

	// The backend client is the only external dependency. Without its
	// credentials the site starts degraded: public pages work, auth and
	// data routes report the outage.
	client, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey, cfg.Backend.Timeout)
	if errors.Is(err, backend.ErrNotConfigured) {
		log.Printf("WARNING: backend credentials are not set (BACKEND_URL, BACKEND_ANON_KEY). " +
			"Authentication and recipe data are disabled.")
		client = nil
	} else if err != nil {
		log.Fatalf("Failed to initialize backend client: %v", err)
	}

	manager := session.NewManager(client, cfg.Cookies)

	var registry *prometheus.Registry
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		collector = metrics.NewCollector(registry)
		manager.SetMetrics(collector)
	}

	csrfSecret := []byte(cfg.CSRF.Secret)
	if len(csrfSecret) == 0 {
		csrfSecret = make([]byte, 32)
		if _, err := rand.Read(csrfSecret); err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		log.Printf("Generated CSRF secret (set CSRF_SECRET to persist across restarts)")
	}

	routerCfg := http_controllers.RouterConfig{
		Manager:       manager,
		Collector:     collector,
		Registry:      registry,
		CSRFSecret:    csrfSecret,
		SecureCookies: cfg.Cookies.Secure,
		RateLimit:     cfg.RateLimit,
		TemplatesPath: cfg.UI.TemplatesPath,
		StaticPath:    cfg.UI.StaticPath,
		Version:       version,
	}

	if client != nil {
		sanitizer := security.NewSanitizer()
		routerCfg.Recipes = recipes.New(client, sanitizer)
		routerCfg.Profiles = profiles.New(client, sanitizer)
		routerCfg.Social = social.New(client, sanitizer)
	}

	router := http_controllers.NewRouter(routerCfg)

	Serve(router, cfg, nil)
}
