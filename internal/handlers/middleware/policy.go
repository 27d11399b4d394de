package middleware

import (
	"net/http"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/handlers/render"
	"github.com/amezhin/eduseek/internal/handlers/userctx"
)

// Policy is a per route access requirement. The router holds an explicit
// route-to-policy table, there is no other way to protect a route.
type Policy int

const (
	// Anyone, identity optional
	PolicyPublic Policy = iota

	// An enabled authenticated user
	PolicyAuthenticated

	// An enabled authenticated user with the admin role
	PolicyPrivileged
)

// RequirePolicy turns the gatekeeper's output (identity present or not)
// into the actual 401/403 decision
func RequirePolicy(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy == PolicyPublic {
				next.ServeHTTP(w, r)
				return
			}

			user, ok := userctx.FromContext(r.Context())
			if !ok {
				render.Error(w, apperrors.Unauthorized("Authentication required"))
				return
			}

			if !user.Enabled {
				render.Error(w, apperrors.AccessDenied("User is disabled"))
				return
			}

			if policy == PolicyPrivileged && !user.IsAdmin() {
				render.Error(w, apperrors.AccessDenied("Not enough permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
