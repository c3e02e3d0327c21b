package middleware

import (
	"errors"
	"net/http"

	"github.com/daap14/tasktrack/internal/api/response"
	"github.com/daap14/tasktrack/internal/auth"
)

// RequireRole returns middleware that rejects identities whose current role
// is not in roles. It must run after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			if _, err := auth.RequireRole(GetIdentity(r.Context()), roles...); err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					response.Unauthorized(w, "Not authenticated", requestID)
					return
				}
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "You don't have enough permissions", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
