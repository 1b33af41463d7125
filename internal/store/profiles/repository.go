// Package profiles is the data access layer for the profiles table, the
// public identity paired with each account.
package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/galleyapp/galley/internal/backend"
	"github.com/galleyapp/galley/internal/entities"
	"github.com/galleyapp/galley/internal/security"
)

const table = "profiles"

var ErrUsernameRequired = errors.New("username is required")

// Repository provides access to profiles.
type Repository struct {
	client    *backend.Client
	sanitizer *security.Sanitizer
}

// New creates a profile repository.
func New(client *backend.Client, sanitizer *security.Sanitizer) *Repository {
	return &Repository{client: client, sanitizer: sanitizer}
}

// Get fetches the profile for a user id. A user without a profile row is
// not an error; the caller gets nil and falls back to a placeholder name.
func (r *Repository) Get(ctx context.Context, accessToken, userID string) (*entities.Profile, error) {
	var rows []entities.Profile
	err := r.client.From(table).
		Select("*").
		Eq("id", userID).
		Limit(1).
		Get(ctx, accessToken, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetMany fetches profiles for a set of user ids, keyed by id. Missing
// profiles are simply absent from the map.
func (r *Repository) GetMany(ctx context.Context, accessToken string, userIDs []string) (map[string]entities.Profile, error) {
	if len(userIDs) == 0 {
		return map[string]entities.Profile{}, nil
	}

	var rows []entities.Profile
	err := r.client.From(table).
		Select("*").
		In("id", unique(userIDs)).
		Get(ctx, accessToken, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching profiles: %w", err)
	}

	byID := make(map[string]entities.Profile, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	return byID, nil
}

// Create inserts the profile row for a new account.
func (r *Repository) Create(ctx context.Context, accessToken string, profile entities.Profile) error {
	profile.Username = r.sanitizer.Plain(profile.Username)
	profile.FullName = r.sanitizer.Plain(profile.FullName)
	if profile.Username == "" {
		return ErrUsernameRequired
	}

	err := r.client.From(table).Insert(ctx, accessToken, &profile, nil)
	if err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	return nil
}

// Update changes the user's username and full name.
func (r *Repository) Update(ctx context.Context, accessToken, userID, username, fullName string) error {
	username = r.sanitizer.Plain(username)
	fullName = r.sanitizer.Plain(fullName)
	if username == "" {
		return ErrUsernameRequired
	}

	err := r.client.From(table).
		Eq("id", userID).
		Update(ctx, accessToken, map[string]string{
			"username":  username,
			"full_name": fullName,
		})
	if err != nil {
		return fmt.Errorf("updating profile %s: %w", userID, err)
	}
	return nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
