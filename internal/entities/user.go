package entities

import "time"

// User is the identity record issued by the backend auth service. It exists
// only while a session is valid; the application treats a nil user as
// "logged out".
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`

	// ConfirmedAt is set once the user has confirmed their email address.
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// Session is the opaque proof of authentication issued by the backend auth
// service. The application only caches it; the backend owns expiry and
// refresh. ExpiresAt is derived from the token response's expires_in.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"-"`
	User         *User     `json:"user"`
}

// Expired reports whether the session's access token is past (or within
// margin of) its expiry. Sessions without a known expiry are treated as
// still valid; the backend is the final authority.
func (s *Session) Expired(margin time.Duration) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(margin).After(s.ExpiresAt)
}
