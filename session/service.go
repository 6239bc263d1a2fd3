// Package session orchestrates signup, login, refresh, logout, and
// per-request authorization by composing the credential store, the password
// hasher, the two token codecs, and the revocation ledger. It returns typed
// errors and never touches the transport layer.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/blogkit/session-server/identity"
	"github.com/blogkit/session-server/internal/apperrors"
	"github.com/blogkit/session-server/internal/metrics"
	"github.com/blogkit/session-server/ledger"
	"github.com/blogkit/session-server/token"
)

// Tokens is the pair returned by Login.
type Tokens struct {
	Access  string `json:"accessToken"`
	Refresh string `json:"refreshToken"`
}

// Repos holds the shared mutable stores the Service composes.
type Repos struct {
	Identities identity.Repo // Credential store
	Revoked    ledger.Ledger // Revocation ledger
}

// Service implements the session state machine:
// Unauthenticated -> Authenticated(access, refresh) -> Refreshed(access', refresh)
// -> Revoked/Expired.
type Service struct {
	repos   Repos
	access  *token.Codec // Access-token codec (short lifetime)
	refresh *token.Codec // Refresh-token codec (long lifetime)
	nowTime func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a Service with required dependencies. Optional
// configuration can be provided via options (e.g. WithNowTime for testing).
func NewService(repos Repos, access, refresh *token.Codec, options ...ServiceOption) (*Service, error) {
	if repos.Identities == nil {
		return nil, errors.New("[NewService] Identities repo is required")
	}
	if repos.Revoked == nil {
		return nil, errors.New("[NewService] Revoked ledger is required")
	}
	if access == nil || refresh == nil {
		return nil, errors.New("[NewService] both token codecs are required")
	}

	service := &Service{
		repos:   repos,
		access:  access,
		refresh: refresh,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Signup registers a new identity with a hashed password. It issues no
// tokens; signup and login are distinct steps. A duplicate email fails with
// ErrConflict.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*identity.Identity, error) {
	hash, err := identity.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Signup] HashPassword")
	}

	ident := &identity.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	}

	if err := s.repos.Identities.Create(ctx, ident); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			metrics.Signups.WithLabelValues("conflict").Inc()
			return nil, err
		}
		metrics.Signups.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "[Service.Signup] Create")
	}

	metrics.Signups.WithLabelValues("ok").Inc()
	log.Info().Str("identity_id", ident.ID).Msg("identity registered")
	return ident, nil
}

// Login verifies the credentials and, on success, issues a fresh access/
// refresh pair and atomically overwrites the identity's current refresh
// token. An unknown email and a wrong password are indistinguishable to the
// caller: both fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*identity.Identity, Tokens, error) {
	ident, err := s.repos.Identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrIdentityNotFound) {
			metrics.Logins.WithLabelValues("invalid_credentials").Inc()
			return nil, Tokens{}, apperrors.ErrInvalidCredentials
		}
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, Tokens{}, errors.Wrap(err, "[Service.Login] GetByEmail")
	}

	if !identity.CheckPasswordHash(password, ident.PasswordHash) {
		metrics.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, Tokens{}, apperrors.ErrInvalidCredentials
	}

	accessToken, err := s.access.Issue(ident.ID)
	if err != nil {
		return nil, Tokens{}, errors.Wrap(err, "[Service.Login] issue access token")
	}
	refreshToken, err := s.refresh.Issue(ident.ID)
	if err != nil {
		return nil, Tokens{}, errors.Wrap(err, "[Service.Login] issue refresh token")
	}

	// The single point where currentRefreshToken advances past login. Any
	// other device's session is implicitly invalidated by this write.
	if err := s.repos.Identities.SetRefreshToken(ctx, ident.ID, refreshToken); err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, Tokens{}, errors.Wrap(err, "[Service.Login] SetRefreshToken")
	}
	ident.CurrentRefreshToken = refreshToken

	metrics.Logins.WithLabelValues("ok").Inc()
	log.Info().Str("identity_id", ident.ID).Msg("login")
	return ident, Tokens{Access: accessToken, Refresh: refreshToken}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is kept, not rotated; replay detection via rotation is a
// documented extension point. The token must be the identity's current one:
// a cryptographically valid token superseded by a later login fails with
// ErrTokenExpired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.ErrTokenMissing
	}

	revoked, err := s.repos.Revoked.IsRevoked(ctx, refreshToken)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		return "", errors.Wrap(err, "[Service.Refresh] IsRevoked")
	}
	if revoked {
		metrics.Refreshes.WithLabelValues("revoked").Inc()
		return "", apperrors.ErrTokenRevoked
	}

	claims, err := s.refresh.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			metrics.Refreshes.WithLabelValues("expired").Inc()
		} else {
			metrics.Refreshes.WithLabelValues("invalid").Inc()
		}
		return "", err
	}

	ident, err := s.repos.Identities.GetByID(ctx, claims.IdentityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrIdentityNotFound) {
			metrics.Refreshes.WithLabelValues("invalid").Inc()
			return "", err
		}
		metrics.Refreshes.WithLabelValues("error").Inc()
		return "", errors.Wrap(err, "[Service.Refresh] GetByID")
	}

	if ident.CurrentRefreshToken != refreshToken {
		metrics.Refreshes.WithLabelValues("expired").Inc()
		return "", apperrors.ErrTokenExpired
	}

	accessToken, err := s.access.Issue(ident.ID)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Refresh] issue access token")
	}

	metrics.Refreshes.WithLabelValues("ok").Inc()
	return accessToken, nil
}

// Logout revokes both tokens and clears the identity's current refresh
// token. Revoking an already-revoked token is a no-op, so calling Logout
// twice succeeds both times without a second ledger write.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken, identityID string) error {
	if accessToken != "" {
		if err := s.repos.Revoked.Revoke(ctx, accessToken, ledger.KindAccess, identityID); err != nil {
			return errors.Wrap(err, "[Service.Logout] revoke access token")
		}
	}
	if refreshToken != "" {
		if err := s.repos.Revoked.Revoke(ctx, refreshToken, ledger.KindRefresh, identityID); err != nil {
			return errors.Wrap(err, "[Service.Logout] revoke refresh token")
		}
	}

	if err := s.repos.Identities.SetRefreshToken(ctx, identityID, ""); err != nil {
		return errors.Wrap(err, "[Service.Logout] clear refresh token")
	}

	log.Info().Str("identity_id", identityID).Msg("logout")
	return nil
}

// Identity loads the identity record behind an authorized request. The
// password hash and refresh token never serialize out of it.
func (s *Service) Identity(ctx context.Context, identityID string) (*identity.Identity, error) {
	ident, err := s.repos.Identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Identity] GetByID")
	}
	return ident, nil
}

// Authorize validates an access token and yields the identity id embedded in
// its claims. Every protected-resource collaborator calls this before
// serving a request.
func (s *Service) Authorize(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		metrics.AuthorizeFailures.WithLabelValues("missing").Inc()
		return "", apperrors.ErrTokenMissing
	}

	revoked, err := s.repos.Revoked.IsRevoked(ctx, accessToken)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Authorize] IsRevoked")
	}
	if revoked {
		metrics.AuthorizeFailures.WithLabelValues("revoked").Inc()
		return "", apperrors.ErrTokenRevoked
	}

	claims, err := s.access.Verify(accessToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			metrics.AuthorizeFailures.WithLabelValues("expired").Inc()
		} else {
			metrics.AuthorizeFailures.WithLabelValues("invalid").Inc()
		}
		return "", err
	}

	return claims.IdentityID, nil
}
