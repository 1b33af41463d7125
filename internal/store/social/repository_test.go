package social

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

func TestListComments_OldestFirst(t *testing.T) {
	var captured *http.Request
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		_, _ = w.Write([]byte(`[{"id":"c1","recipe_id":"r1","content":"Lovely"}]`))
	})

	comments, err := repo.ListComments(context.Background(), "token", "r1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Lovely", comments[0].Content)

	assert.Equal(t, "/rest/v1/recipe_comments", captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "eq.r1", q.Get("recipe_id"))
	assert.Equal(t, "created_at.asc", q.Get("order"))
}

func TestAddComment_StripsMarkup(t *testing.T) {
	var body map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c9","recipe_id":"r1","user_id":"u1","content":"Nice alert(1)"}`))
	})

	created, err := repo.AddComment(context.Background(), "token", "u1", "r1",
		`Nice <script>alert(1)</script>`)
	require.NoError(t, err)
	assert.Equal(t, "c9", created.ID)

	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "r1", body["recipe_id"])
	assert.NotContains(t, body["content"], "<script")
	assert.NotContains(t, body, "id")
	assert.NotContains(t, body, "created_at")
}

func TestLike_BodyIsJustTheKeys(t *testing.T) {
	var body map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, repo.Like(context.Background(), "token", "u1", "r1"))
	assert.Equal(t, map[string]any{"recipe_id": "r1", "user_id": "u1"}, body)
}

func TestAddComment_Rejections(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid comments must not reach the backend")
	})

	_, err := repo.AddComment(context.Background(), "token", "u1", "r1", "   ")
	assert.ErrorIs(t, err, ErrCommentRequired)

	long := make([]byte, maxCommentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = repo.AddComment(context.Background(), "token", "u1", "r1", string(long))
	assert.ErrorIs(t, err, ErrCommentTooLong)
}

func TestDeleteComment_ScopesToOwner(t *testing.T) {
	var captured *http.Request
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, repo.DeleteComment(context.Background(), "token", "c1", "u1"))
	assert.Equal(t, http.MethodDelete, captured.Method)
	q := captured.URL.Query()
	assert.Equal(t, "eq.c1", q.Get("id"))
	assert.Equal(t, "eq.u1", q.Get("user_id"))
}

func TestCountLikes_UsesExactCount(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		w.Header().Set("Content-Range", "0-0/42")
	})

	n, err := repo.CountLikes(context.Background(), "token", "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}

func TestLiked(t *testing.T) {
	count := "0"
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eq.r1", q.Get("recipe_id"))
		assert.Equal(t, "eq.u1", q.Get("user_id"))
		w.Header().Set("Content-Range", "*/"+count)
	})

	liked, err := repo.Liked(context.Background(), "token", "r1", "u1")
	require.NoError(t, err)
	assert.False(t, liked)

	count = "1"
	liked, err = repo.Liked(context.Background(), "token", "r1", "u1")
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestLikeAndUnlike(t *testing.T) {
	var methods []string
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		assert.Equal(t, "/rest/v1/recipe_likes", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, repo.Like(context.Background(), "token", "u1", "r1"))
	require.NoError(t, repo.Unlike(context.Background(), "token", "u1", "r1"))
	assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, methods)
}

func TestListLikedRecipeIDs_NewestFirst(t *testing.T) {
	var captured *http.Request
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		_, _ = w.Write([]byte(`[{"recipe_id":"r3"},{"recipe_id":"r1"}]`))
	})

	ids, err := repo.ListLikedRecipeIDs(context.Background(), "token", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r1"}, ids)

	q := captured.URL.Query()
	assert.Equal(t, "eq.u1", q.Get("user_id"))
	assert.Equal(t, "created_at.desc", q.Get("order"))
	assert.Equal(t, "recipe_id,created_at", q.Get("select"))
}
