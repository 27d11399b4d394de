package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/amezhin/eduseek/internal/handlers/userctx"
	"github.com/amezhin/eduseek/internal/models"
)

// AuthExemptPrefix is the namespace the gatekeeper never inspects:
// register, login, refresh and logout manage tokens themselves
const AuthExemptPrefix = "/auth/"

type identifier interface {
	// Identify returns the user a request's bearer token belongs to.
	// Any error means the request stays anonymous.
	Identify(ctx context.Context, r *http.Request) (models.User, error)
}

// Gatekeeper attaches an authenticated identity to the request context
// when the presented token verifies and its ledger row is usable.
//
// It never rejects a request itself: every failure degrades to an
// anonymous pass-through and the policy stage decides about 401/403.
func Gatekeeper(auth identifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, AuthExemptPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			// Identity set by an earlier stage stays untouched
			if _, ok := userctx.FromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Identify(r.Context(), r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
