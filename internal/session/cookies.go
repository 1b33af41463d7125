package session

import (
	"net/http"
	"strconv"
	"time"

	"github.com/galleyapp/galley/internal/config"
	"github.com/galleyapp/galley/internal/entities"
)

// Cookie names for the provider-issued token pair. The expiry travels in
// its own cookie so the server can decide whether to refresh without
// decoding the access token.
const (
	AccessTokenCookie  = "galley_access_token"
	RefreshTokenCookie = "galley_refresh_token"
	TokenExpiryCookie  = "galley_token_expiry"
)

// refreshTokenLifetime bounds how long a signed-in browser can stay away
// before having to log in again.
const refreshTokenLifetime = 30 * 24 * time.Hour

// Tokens is the session material carried in request cookies.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// CookieCodec reads and writes the session cookies. Writing happens when
// the provider rotates tokens (sign-in, refresh) and clearing on sign-out;
// both must replace the whole cookie set atomically from the client's point
// of view, i.e. within a single response.
type CookieCodec struct {
	Secure bool
	Domain string
}

// NewCookieCodec builds a codec from the cookie configuration.
func NewCookieCodec(cfg config.Cookies) CookieCodec {
	return CookieCodec{Secure: cfg.Secure, Domain: cfg.Domain}
}

// Read extracts the token pair from request cookies. Returns false when no
// session material is present at all.
func (c CookieCodec) Read(r *http.Request) (Tokens, bool) {
	var tokens Tokens

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		tokens.AccessToken = cookie.Value
	}
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		tokens.RefreshToken = cookie.Value
	}
	if cookie, err := r.Cookie(TokenExpiryCookie); err == nil {
		if unix, err := strconv.ParseInt(cookie.Value, 10, 64); err == nil {
			tokens.ExpiresAt = time.Unix(unix, 0)
		}
	}

	return tokens, tokens.AccessToken != "" || tokens.RefreshToken != ""
}

// Write persists a session's tokens as response cookies.
func (c CookieCodec) Write(w http.ResponseWriter, session *entities.Session) {
	if session == nil {
		c.Clear(w)
		return
	}

	accessMaxAge := session.ExpiresIn
	if accessMaxAge <= 0 {
		accessMaxAge = 3600
	}

	c.set(w, AccessTokenCookie, session.AccessToken, accessMaxAge)
	c.set(w, RefreshTokenCookie, session.RefreshToken, int(refreshTokenLifetime.Seconds()))
	if !session.ExpiresAt.IsZero() {
		c.set(w, TokenExpiryCookie, strconv.FormatInt(session.ExpiresAt.Unix(), 10), int(refreshTokenLifetime.Seconds()))
	}
}

// Clear expires all session cookies.
func (c CookieCodec) Clear(w http.ResponseWriter) {
	c.set(w, AccessTokenCookie, "", -1)
	c.set(w, RefreshTokenCookie, "", -1)
	c.set(w, TokenExpiryCookie, "", -1)
}

func (c CookieCodec) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
