package entities

import "time"

// Profile is the public identity row paired with each auth user. The row id
// equals the auth user id.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DisplayName returns the best available human-readable name.
func (p *Profile) DisplayName() string {
	if p == nil {
		return "Anonymous Chef"
	}
	if p.FullName != "" {
		return p.FullName
	}
	if p.Username != "" {
		return p.Username
	}
	return "Anonymous Chef"
}
