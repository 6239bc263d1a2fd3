package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/blogkit/session-server/identity"
	"github.com/blogkit/session-server/internal/apperrors"
	"github.com/blogkit/session-server/session"
)

var validate = validator.New()

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SignupHandler registers a new identity. No tokens are issued here; signup
// and login are distinct steps.
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, ReasonBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, ReasonBadRequest, err.Error())
			return
		}
		if err := identity.ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, ReasonBadRequest, err.Error())
			return
		}

		var ident *identity.Identity
		err := retryOnInfrastructure(r.Context(), func() error {
			var err error
			ident, err = s.sessions.Signup(r.Context(), req.Email, req.Password, req.Name)
			return err
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ident)
	}
}

// LoginHandler verifies credentials, sets both auth cookies, and returns the
// token pair in the body for non-browser clients.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, ReasonBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, ReasonBadRequest, err.Error())
			return
		}

		var tokens session.Tokens
		err := retryOnInfrastructure(r.Context(), func() error {
			var err error
			_, tokens, err = s.sessions.Login(r.Context(), req.Email, req.Password)
			return err
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.setAccessCookie(w, tokens.Access)
		s.setRefreshCookie(w, tokens.Refresh)
		writeJSON(w, http.StatusOK, tokens)
	}
}

// RefreshHandler exchanges a refresh token (body first, cookie fallback) for
// a new access token and re-sets only the access cookie.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		_ = decodeJSON(r, &req) // body is optional, cookie is the fallback
		refreshToken := req.RefreshToken
		if refreshToken == "" {
			refreshToken = cookieValue(r, CookieRefreshToken)
		}

		var accessToken string
		err := retryOnInfrastructure(r.Context(), func() error {
			var err error
			accessToken, err = s.sessions.Refresh(r.Context(), refreshToken)
			return err
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.setAccessCookie(w, accessToken)
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
	}
}

// LogoutHandler revokes both tokens and clears the cookies. It sits behind
// RequireAuth, so the identity id is already in the request context.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, _ := r.Context().Value(ContextKeyIdentityID).(string)
		accessToken := accessTokenFromRequest(r)
		refreshToken := cookieValue(r, CookieRefreshToken)

		err := retryOnInfrastructure(r.Context(), func() error {
			return s.sessions.Logout(r.Context(), accessToken, refreshToken, identityID)
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.clearAuthCookies(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

// MeHandler returns the authenticated identity, the surface every
// collaborator consumes.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, _ := r.Context().Value(ContextKeyIdentityID).(string)

		var ident *identity.Identity
		err := retryOnInfrastructure(r.Context(), func() error {
			var err error
			ident, err = s.sessions.Identity(r.Context(), identityID)
			return err
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ident)
	}
}

// HealthHandler pings the store.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.pinger != nil {
			if err := s.pinger.Ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, ReasonStoreUnavailable, "store unreachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// writeServiceError translates session service errors to status codes and
// reason codes. Raw error text from the service never reaches the body.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		writeError(w, http.StatusConflict, ReasonConflict, "email already registered")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, ReasonInvalidCredentials, "invalid email or password")
	case errors.Is(err, apperrors.ErrTokenMissing):
		writeError(w, http.StatusBadRequest, ReasonTokenMissing, "token required")
	case errors.Is(err, apperrors.ErrTokenRevoked):
		writeError(w, http.StatusForbidden, ReasonTokenRevoked, "token revoked")
	case errors.Is(err, apperrors.ErrTokenExpired):
		writeError(w, http.StatusForbidden, ReasonTokenExpired, "token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrIdentityNotFound):
		writeError(w, http.StatusForbidden, ReasonTokenInvalid, "token invalid")
	case errors.Is(err, apperrors.ErrInfrastructure):
		log.Error().Err(err).Msg("store unavailable")
		writeError(w, http.StatusServiceUnavailable, ReasonStoreUnavailable, "temporarily unavailable, retry later")
	default:
		log.Error().Err(err).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
