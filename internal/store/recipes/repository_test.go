package recipes

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

func TestListPublished_QueryShape(t *testing.T) {
	var captured *http.Request
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		_, _ = w.Write([]byte(`[{"id":"r1","title":"Shakshuka","is_published":true}]`))
	})

	recipes, err := repo.ListPublished(context.Background(), "token", "")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Shakshuka", recipes[0].Title)

	require.NotNil(t, captured)
	assert.Equal(t, "/rest/v1/recipes", captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "eq.true", q.Get("is_published"))
	assert.Equal(t, "created_at.desc", q.Get("order"))
	assert.Equal(t, "50", q.Get("limit"))
	assert.Empty(t, q.Get("or"), "no search filter without a term")
}

func TestListPublished_SearchFilter(t *testing.T) {
	var captured *http.Request
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := repo.ListPublished(context.Background(), "token", "lentil soup")
	require.NoError(t, err)

	or := captured.URL.Query().Get("or")
	assert.Contains(t, or, "title.ilike.*lentil soup*")
	assert.Contains(t, or, "description.ilike.*lentil soup*")
	assert.Contains(t, or, "ingredients.ilike.*lentil soup*")
	assert.Contains(t, or, "category.ilike.*lentil soup*")
}

func TestGet_SingleObject(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		assert.Equal(t, "eq.r1", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{"id":"r1","title":"Pho"}`))
	})

	recipe, err := repo.Get(context.Background(), "token", "r1")
	require.NoError(t, err)
	assert.Equal(t, "Pho", recipe.Title)
}

func TestCreate_SanitizesAndValidates(t *testing.T) {
	var body map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"r9","title":"Bread"}`))
	})

	created, err := repo.Create(context.Background(), "token", "user-1", entities.Recipe{
		Title:        `Bread<script>alert(1)</script>`,
		Instructions: "<p>Knead <strong>well</strong>.</p><script>x()</script>",
		Difficulty:   entities.DifficultyEasy,
		Servings:     0,
	})
	require.NoError(t, err)
	assert.Equal(t, "r9", created.ID)

	assert.Equal(t, "user-1", body["user_id"])
	assert.NotContains(t, body["title"], "<script")
	assert.NotContains(t, body["instructions"], "<script")
	assert.Contains(t, body["instructions"], "<strong>well</strong>")
	assert.EqualValues(t, 1, body["servings"], "servings floor to 1")

	// id and the timestamps belong to the database.
	assert.NotContains(t, body, "id")
	assert.NotContains(t, body, "created_at")
	assert.NotContains(t, body, "updated_at")
}

func TestCreate_Rejections(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid recipes must not reach the backend")
	})

	tests := []struct {
		name    string
		recipe  entities.Recipe
		wantErr error
	}{
		{
			name:    "missing title",
			recipe:  entities.Recipe{Instructions: "mix", Difficulty: "easy"},
			wantErr: ErrTitleRequired,
		},
		{
			name:    "markup-only title",
			recipe:  entities.Recipe{Title: "<script>x</script>", Instructions: "mix", Difficulty: "easy"},
			wantErr: ErrTitleRequired,
		},
		{
			name:    "missing instructions",
			recipe:  entities.Recipe{Title: "Toast", Difficulty: "easy"},
			wantErr: ErrInstructionsRequired,
		},
		{
			name:    "bad difficulty",
			recipe:  entities.Recipe{Title: "Toast", Instructions: "toast it", Difficulty: "impossible"},
			wantErr: ErrInvalidDifficulty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(context.Background(), "token", "user-1", tt.recipe)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdate_ScopesToOwner(t *testing.T) {
	var captured *http.Request
	var body map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	})

	err := repo.Update(context.Background(), "token", "r1", "user-1", entities.Recipe{
		Title:        "Updated",
		Instructions: "do it better",
		Difficulty:   entities.DifficultyMedium,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, captured.Method)
	q := captured.URL.Query()
	assert.Equal(t, "eq.r1", q.Get("id"))
	assert.Equal(t, "eq.user-1", q.Get("user_id"))

	// Ownership lives in the filter, never the body: an empty user_id
	// against the uuid column would fail the whole PATCH, and a zero
	// created_at would overwrite the row's real creation time.
	assert.Equal(t, "Updated", body["title"])
	assert.NotContains(t, body, "id")
	assert.NotContains(t, body, "user_id")
	assert.NotContains(t, body, "created_at")
	assert.NotContains(t, body, "updated_at")
}

func TestDelete_ScopesToOwner(t *testing.T) {
	var captured *http.Request
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, repo.Delete(context.Background(), "token", "r1", "user-1"))
	assert.Equal(t, http.MethodDelete, captured.Method)
	assert.Equal(t, "eq.user-1", captured.URL.Query().Get("user_id"))
}

func TestListByIDs_EmptyShortCircuits(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("empty id list must not hit the backend")
	})

	recipes, err := repo.ListByIDs(context.Background(), "token", nil)
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestListByIDs_InFilter(t *testing.T) {
	var captured *http.Request
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := repo.ListByIDs(context.Background(), "token", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "in.(a,b)", captured.URL.Query().Get("id"))
}
