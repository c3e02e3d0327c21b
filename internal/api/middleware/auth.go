package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/daap14/tasktrack/internal/api/response"
	"github.com/daap14/tasktrack/internal/auth"
)

const identityKey contextKey = "identity"

// IdentityResolver resolves a bearer token to a live identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Identity, error)
}

// Authenticate is middleware that reads the Authorization: Bearer header and
// resolves it to an Identity. Missing, malformed, invalid or expired tokens
// and tokens for identities that no longer exist all return 401.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				response.Unauthorized(w, "Not authenticated", requestID)
				return
			}

			identity, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					response.Unauthorized(w, "Token expired", requestID)
				case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenMalformed):
					response.Unauthorized(w, "Invalid token", requestID)
				case errors.Is(err, auth.ErrUnauthorized):
					response.Unauthorized(w, "User not found", requestID)
				default:
					slog.Error("failed to resolve identity", "error", err, "requestId", requestID)
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				}
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
