package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/galleyapp/galley/internal/config"
)

// LoginLimiter tracks failed sign-in attempts per IP+email combination
// using a sliding window, locking the pair out once the limit is hit.
type LoginLimiter struct {
	mu              sync.RWMutex
	attempts        map[string]*attemptRecord
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// NewLoginLimiter creates a login limiter from the rate-limit config,
// falling back to defaults for unset values.
func NewLoginLimiter(cfg config.RateLimit) *LoginLimiter {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}

	ll := &LoginLimiter{
		attempts:        make(map[string]*attemptRecord),
		maxAttempts:     cfg.MaxLoginAttempts,
		windowDuration:  cfg.Window,
		lockoutDuration: cfg.LockoutDuration,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go ll.cleanupLoop()

	return ll
}

// Stop stops the background cleanup goroutine.
func (ll *LoginLimiter) Stop() {
	close(ll.stopCleanup)
}

func (ll *LoginLimiter) makeKey(ip, email string) string {
	return ip + ":" + email
}

// Allow checks whether a sign-in attempt for this IP+email should proceed.
// When it should not, retryAfter indicates when the lockout expires.
func (ll *LoginLimiter) Allow(ip, email string) (bool, time.Duration) {
	key := ll.makeKey(ip, email)
	now := time.Now()

	ll.mu.RLock()
	record, exists := ll.attempts[key]
	ll.mu.RUnlock()

	if !exists {
		return true, 0
	}

	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}

	if now.Sub(record.firstAttempt) > ll.windowDuration {
		return true, 0
	}

	if record.count < ll.maxAttempts {
		return true, 0
	}

	return false, ll.lockoutDuration
}

// RecordFailure records a failed sign-in attempt and reports whether it
// triggered a lockout.
func (ll *LoginLimiter) RecordFailure(ip, email string) (bool, time.Duration) {
	key := ll.makeKey(ip, email)
	now := time.Now()

	ll.mu.Lock()
	defer ll.mu.Unlock()

	record, exists := ll.attempts[key]
	if !exists {
		record = &attemptRecord{firstAttempt: now}
		ll.attempts[key] = record
	}

	// Reset if window expired
	if now.Sub(record.firstAttempt) > ll.windowDuration {
		record.count = 0
		record.firstAttempt = now
		record.lockedUntil = time.Time{}
	}

	record.count++

	if record.count >= ll.maxAttempts {
		record.lockedUntil = now.Add(ll.lockoutDuration)
		return true, ll.lockoutDuration
	}

	return false, 0
}

// RecordSuccess clears the failure record after a successful sign-in.
func (ll *LoginLimiter) RecordSuccess(ip, email string) {
	key := ll.makeKey(ip, email)

	ll.mu.Lock()
	delete(ll.attempts, key)
	ll.mu.Unlock()
}

func (ll *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(ll.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ll.cleanup()
		case <-ll.stopCleanup:
			return
		}
	}
}

func (ll *LoginLimiter) cleanup() {
	now := time.Now()
	expiry := ll.windowDuration + ll.lockoutDuration

	ll.mu.Lock()
	defer ll.mu.Unlock()

	for key, record := range ll.attempts {
		windowExpired := now.Sub(record.firstAttempt) > expiry
		lockoutExpired := record.lockedUntil.IsZero() || now.After(record.lockedUntil)

		if windowExpired && lockoutExpired {
			delete(ll.attempts, key)
		}
	}
}

// Middleware rejects POSTs to the auth forms for locked-out IP+email
// pairs before they reach the backend. Lockouts are recorded by the
// handlers, which know whether the attempt actually failed.
func (ll *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		email := c.PostForm("email")
		if email == "" {
			c.Next()
			return
		}

		allowed, retryAfter := ll.Allow(c.ClientIP(), email)
		if !allowed {
			c.Header("Retry-After", retryAfter.Round(time.Second).String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many sign-in attempts",
				"retry_after": retryAfter.Round(time.Second).String(),
			})
			return
		}

		c.Next()
	}
}

// RequestLimiter applies a steady per-IP request rate to mutating
// endpoints, independent of the login lockout.
type RequestLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	stopEvict chan struct{}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRequestLimiter creates a per-IP limiter allowing perMinute requests
// per minute with a small burst.
func NewRequestLimiter(perMinute int) *RequestLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	rl := &RequestLimiter{
		visitors:  make(map[string]*visitor),
		rps:       rate.Limit(float64(perMinute) / 60.0),
		burst:     perMinute/3 + 1,
		stopEvict: make(chan struct{}),
	}

	go rl.evictLoop()

	return rl
}

// Stop stops the background eviction goroutine.
func (rl *RequestLimiter) Stop() {
	close(rl.stopEvict)
}

func (rl *RequestLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RequestLimiter) evictLoop() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 10*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopEvict:
			return
		}
	}
}

// Middleware rejects requests over the per-IP rate with 429.
func (rl *RequestLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
