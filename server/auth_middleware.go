package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/blogkit/session-server/internal/apperrors"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyIdentityID stores the authenticated identity id
const ContextKeyIdentityID ContextKey = "identity_id"

// accessTokenFromRequest reads the access token from the cookie, falling
// back to an Authorization bearer header for non-browser clients.
func accessTokenFromRequest(r *http.Request) string {
	if v := cookieValue(r, CookieAccessToken); v != "" {
		return v
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireAuth validates the access token through the session service and
// injects the identity id into the request context. Failures answer 401 with
// a machine-readable reason so clients can tell "re-authenticate" from
// "retry refresh".
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			accessToken := accessTokenFromRequest(r)

			var identityID string
			err := retryOnInfrastructure(r.Context(), func() error {
				var err error
				identityID, err = s.sessions.Authorize(r.Context(), accessToken)
				return err
			})
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrTokenMissing):
					writeError(w, http.StatusUnauthorized, ReasonTokenMissing, "access token required")
				case errors.Is(err, apperrors.ErrTokenExpired):
					writeError(w, http.StatusUnauthorized, ReasonTokenExpired, "access token expired")
				case errors.Is(err, apperrors.ErrInfrastructure):
					writeError(w, http.StatusServiceUnavailable, ReasonStoreUnavailable, "temporarily unavailable, retry later")
				default:
					writeError(w, http.StatusUnauthorized, ReasonTokenInvalid, "access token invalid")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentityID, identityID)
			next(w, r.WithContext(ctx))
		}
	}
}
