// Package routes is the single source of truth for route classification.
// Both the edge middleware and the per-route guards derive their redirect
// policy from this table; keeping it in one place is what prevents the two
// enforcement points from drifting apart.
package routes

import "strings"

// Redirect targets shared by both enforcement points.
const (
	AuthPath      = "/auth"
	DashboardPath = "/dashboard"

	// RedirectToParam carries the originally requested path through the
	// login flow.
	RedirectToParam = "redirectTo"
)

// authRoutes are public-only pages: exact-match paths that an authenticated
// user is bounced away from.
var authRoutes = []string{
	"/auth",
	"/auth/login",
	"/auth/signup",
}

// protectedPrefixes gate everything beneath them behind authentication.
var protectedPrefixes = []string{
	"/dashboard",
	"/profile",
	"/recipes/create",
	"/settings",
	"/saved",
}

// Classification is the auth-relevant category of a request path.
type Classification struct {
	IsAuthRoute      bool
	IsProtectedRoute bool
}

// Handled reports whether the path participates in auth routing at all.
// Unhandled paths bypass session resolution entirely.
func (c Classification) Handled() bool {
	return c.IsAuthRoute || c.IsProtectedRoute
}

// Classify categorizes a request path: exact match for auth routes, prefix
// match for protected routes.
func Classify(path string) Classification {
	var c Classification

	for _, route := range authRoutes {
		if path == route {
			c.IsAuthRoute = true
			break
		}
	}
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			c.IsProtectedRoute = true
			break
		}
	}

	return c
}

// AuthRoutes returns a copy of the public-only path list.
func AuthRoutes() []string {
	return append([]string(nil), authRoutes...)
}

// ProtectedPrefixes returns a copy of the protected prefix list.
func ProtectedPrefixes() []string {
	return append([]string(nil), protectedPrefixes...)
}
