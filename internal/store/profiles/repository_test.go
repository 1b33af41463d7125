package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galleyapp/galley/internal/backend"
	"github.com/galleyapp/galley/internal/entities"
	"github.com/galleyapp/galley/internal/security"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *Repository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := backend.NewClient(server.URL, "anon-key", time.Second)
	require.NoError(t, err)
	return New(client, security.NewSanitizer())
}

func TestGet_MissingProfileIsNotAnError(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	profile, err := repo.Get(context.Background(), "token", "u1")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGet_ReturnsProfile(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.u1", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`[{"id":"u1","username":"chef_kay","full_name":"Kay"}]`))
	})

	profile, err := repo.Get(context.Background(), "token", "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "chef_kay", profile.Username)
}

func TestGetMany_DeduplicatesAndKeysByID(t *testing.T) {
	var captured *http.Request
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		_, _ = w.Write([]byte(`[{"id":"u1","username":"a"},{"id":"u2","username":"b"}]`))
	})

	byID, err := repo.GetMany(context.Background(), "token", []string{"u1", "u2", "u1"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	assert.Equal(t, "a", byID["u1"].Username)

	assert.Equal(t, "in.(u1,u2)", captured.URL.Query().Get("id"))
}

func TestGetMany_EmptyShortCircuits(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("empty id list must not hit the backend")
	})

	byID, err := repo.GetMany(context.Background(), "token", nil)
	require.NoError(t, err)
	assert.Empty(t, byID)
}

func TestUpdate_SanitizesAndValidates(t *testing.T) {
	var body map[string]string
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	})

	err := repo.Update(context.Background(), "token", "u1",
		"chef<script>x</script>_kay", "<em>Kay</em>")
	require.NoError(t, err)

	assert.NotContains(t, body["username"], "<script")
	assert.Equal(t, "Kay", body["full_name"])
}

func TestUpdate_RequiresUsername(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid updates must not reach the backend")
	})

	err := repo.Update(context.Background(), "token", "u1", "", "Kay")
	assert.ErrorIs(t, err, ErrUsernameRequired)
}

func TestCreate_SendsRow(t *testing.T) {
	var body entities.Profile
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	})

	err := repo.Create(context.Background(), "token", entities.Profile{
		ID:       "u1",
		Username: "chef_kay",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", body.ID)
	assert.Equal(t, "chef_kay", body.Username)
}
