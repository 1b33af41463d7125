package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path          string
		wantAuth      bool
		wantProtected bool
	}{
		{"/auth", true, false},
		{"/auth/login", true, false},
		{"/auth/signup", true, false},
		// Auth routes are exact matches only.
		{"/auth/callback", false, false},
		{"/auth/login/extra", false, false},

		{"/dashboard", false, true},
		{"/dashboard/stats", false, true},
		{"/profile", false, true},
		{"/profile/edit", false, true},
		{"/recipes/create", false, true},
		{"/settings", false, true},
		{"/settings/account", false, true},
		{"/saved", false, true},

		// Prefix match must not swallow sibling paths.
		{"/recipes/123", false, false},
		{"/recipes/created-by-me", false, false},
		{"/dashboard-stats", false, false},
		{"/savedsearch", false, false},

		{"/", false, false},
		{"/about", false, false},
		{"/health", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c := Classify(tt.path)
			assert.Equal(t, tt.wantAuth, c.IsAuthRoute, "IsAuthRoute")
			assert.Equal(t, tt.wantProtected, c.IsProtectedRoute, "IsProtectedRoute")
			assert.Equal(t, tt.wantAuth || tt.wantProtected, c.Handled(), "Handled")
		})
	}
}

func TestListsAreCopies(t *testing.T) {
	got := AuthRoutes()
	got[0] = "/mutated"
	assert.Equal(t, "/auth", AuthRoutes()[0])

	prefixes := ProtectedPrefixes()
	prefixes[0] = "/mutated"
	assert.Equal(t, "/dashboard", ProtectedPrefixes()[0])
}
