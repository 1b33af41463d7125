package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Backend
		Cookies
		CSRF
		RateLimit
		UI
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	// Backend holds the connection settings for the hosted backend that
	// provides authentication and the auto-generated data API. Both URL and
	// AnonKey must be set for authentication to work; when either is missing
	// the application starts in a degraded mode where every auth operation
	// reports "authentication unavailable".
	Backend struct {
		URL     string
		AnonKey string
		Timeout time.Duration
	}

	Cookies struct {
		Secure bool   // Set to false for local dev without HTTPS
		Domain string // Optional cookie domain
	}

	CSRF struct {
		Secret string // Auto-generated if empty
	}

	// Rate limiting configuration for the auth form endpoints.
	RateLimit struct {
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		Window           time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
		RequestsPerMin   int           // General per-IP limit on auth POSTs (default: 30)
	}

	UI struct {
		TemplatesPath string
		StaticPath    string
	}

	Metrics struct {
		Enabled bool
	}
)

// IsBackendConfigured reports whether the backend credentials are present.
func (c *Config) IsBackendConfigured() bool {
	return c.Backend.URL != "" && c.Backend.AnonKey != ""
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	// Backend defaults. URL/key intentionally default to empty: the
	// application must start (degraded) without them.
	v.SetDefault("backend_url", "")
	v.SetDefault("backend_anon_key", "")
	v.SetDefault("backend_timeout", "10s")

	// Cookie / CSRF defaults
	v.SetDefault("secure_cookies", true) // HTTPS-only cookies
	v.SetDefault("cookie_domain", "")
	v.SetDefault("csrf_secret", "") // Auto-generated if empty

	// Rate limiting defaults
	v.SetDefault("rate_limit_max_login_attempts", 5)
	v.SetDefault("rate_limit_window", "15m")
	v.SetDefault("rate_limit_lockout_duration", "30m")
	v.SetDefault("rate_limit_requests_per_min", 30)

	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	v.SetDefault("metrics_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Backend: Backend{
			URL:     v.GetString("BACKEND_URL"),
			AnonKey: v.GetString("BACKEND_ANON_KEY"),
			Timeout: v.GetDuration("BACKEND_TIMEOUT"),
		},
		Cookies: Cookies{
			Secure: v.GetBool("SECURE_COOKIES"),
			Domain: v.GetString("COOKIE_DOMAIN"),
		},
		CSRF: CSRF{
			Secret: v.GetString("CSRF_SECRET"),
		},
		RateLimit: RateLimit{
			MaxLoginAttempts: v.GetInt("RATE_LIMIT_MAX_LOGIN_ATTEMPTS"),
			Window:           v.GetDuration("RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("RATE_LIMIT_LOCKOUT_DURATION"),
			RequestsPerMin:   v.GetInt("RATE_LIMIT_REQUESTS_PER_MIN"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}
}
