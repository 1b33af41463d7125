// Package auth enforces the application's route access policy and serves
// the authentication pages.
//
// Authentication itself is delegated to the hosted backend; this package
// only decides, per request, whether the session carried in the cookies
// allows the requested page, and translates backend failures into messages
// the auth forms can show.
//
// Enforcement happens twice, on purpose:
//
//   - Middleware.Handler runs for every request but acts only on the paths
//     the shared route table classifies (auth pages and protected
//     sections); everything else passes through untouched.
//   - The per-route guards (RequireAuth, RequireAnon) are registered on the
//     pages themselves and re-check the resolved state, so a page stays
//     protected even if it is ever mounted outside the classified set.
//
// Both derive their policy from the routes package; neither keeps its own
// path list.
package auth
