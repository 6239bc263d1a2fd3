package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fakeidentityrepo "github.com/blogkit/session-server/identity/repofake"
	"github.com/blogkit/session-server/internal/apperrors"
	"github.com/blogkit/session-server/ledger"
	"github.com/blogkit/session-server/token"
)

const (
	testAccessSecret  = "session-test-access-secret-01234"
	testRefreshSecret = "session-test-refresh-secret-0123"
	testAccessTTL     = 15 * time.Minute
	testRefreshTTL    = 7 * 24 * time.Hour
)

type serviceFixture struct {
	service    *Service
	identities *fakeidentityrepo.FakeIdentityRepo
	revoked    *ledger.InMemory
	now        time.Time
}

// newServiceFixture wires the service against in-memory collaborators with a
// single movable clock shared by the codecs, the ledger, and the service.
func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		identities: fakeidentityrepo.NewFakeIdentityRepo(),
		now:        time.Now(),
	}
	clock := func() time.Time { return f.now }

	f.revoked = ledger.NewInMemory(ledger.WithNowFunc(clock))
	access := token.NewCodec(testAccessSecret, testAccessTTL, "session-server", token.WithNowFunc(clock))
	refresh := token.NewCodec(testRefreshSecret, testRefreshTTL, "session-server", token.WithNowFunc(clock))

	service, err := NewService(Repos{Identities: f.identities, Revoked: f.revoked},
		access, refresh, WithNowTime(clock))
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *serviceFixture) signupAndLogin(t *testing.T, email, password string) Tokens {
	t.Helper()
	ctx := context.Background()

	_, err := f.service.Signup(ctx, email, password, "Test User")
	require.NoError(t, err)
	_, tokens, err := f.service.Login(ctx, email, password)
	require.NoError(t, err)
	return tokens
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	access := token.NewCodec(testAccessSecret, testAccessTTL, "session-server")
	refresh := token.NewCodec(testRefreshSecret, testRefreshTTL, "session-server")
	repos := Repos{Identities: fakeidentityrepo.NewFakeIdentityRepo(), Revoked: ledger.NewInMemory()}

	_, err := NewService(Repos{Revoked: repos.Revoked}, access, refresh)
	require.Error(t, err)
	_, err = NewService(Repos{Identities: repos.Identities}, access, refresh)
	require.Error(t, err)
	_, err = NewService(repos, nil, refresh)
	require.Error(t, err)
	_, err = NewService(repos, access, refresh)
	require.NoError(t, err)
}

func TestSignupIssuesNoTokens(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	ident, err := f.service.Signup(ctx, "writer@example.com", "Password1", "Writer")
	require.NoError(t, err)
	require.NotEmpty(t, ident.ID)
	require.Equal(t, "writer@example.com", ident.Email)
	require.NotEqual(t, "Password1", ident.PasswordHash)
	require.Empty(t, ident.CurrentRefreshToken)
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.Signup(ctx, "writer@example.com", "Password1", "Writer")
	require.NoError(t, err)
	_, err = f.service.Signup(ctx, "writer@example.com", "Password2", "Impostor")
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")
	require.NotEmpty(t, tokens.Access)
	require.NotEmpty(t, tokens.Refresh)
	require.NotEqual(t, tokens.Access, tokens.Refresh)

	identityID, err := f.service.Authorize(ctx, tokens.Access)
	require.NoError(t, err)

	ident, err := f.service.Identity(ctx, identityID)
	require.NoError(t, err)
	require.Equal(t, "writer@example.com", ident.Email)
	require.Equal(t, tokens.Refresh, ident.CurrentRefreshToken)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.Signup(ctx, "writer@example.com", "Password1", "Writer")
	require.NoError(t, err)

	_, _, err = f.service.Login(ctx, "writer@example.com", "Password2")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmailIndistinguishableFromWrongPassword(t *testing.T) {
	f := newServiceFixture(t)

	_, _, err := f.service.Login(context.Background(), "nobody@example.com", "Password1")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.NotErrorIs(t, err, apperrors.ErrIdentityNotFound)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")

	newAccess, err := f.service.Refresh(ctx, tokens.Refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEqual(t, tokens.Access, newAccess)

	// Both the old and the new access token authorize until expiry.
	_, err = f.service.Authorize(ctx, tokens.Access)
	require.NoError(t, err)
	_, err = f.service.Authorize(ctx, newAccess)
	require.NoError(t, err)
}

func TestRefreshWithMissingToken(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Refresh(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrTokenMissing)
}

func TestRefreshWithGarbageToken(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestRefreshWithAccessTokenFails(t *testing.T) {
	f := newServiceFixture(t)

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")

	// Access tokens are signed with a disjoint secret and never pass the
	// refresh codec.
	_, err := f.service.Refresh(context.Background(), tokens.Access)
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestRefreshSupersededBySecondLogin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first := f.signupAndLogin(t, "writer@example.com", "Password1")
	_, second, err := f.service.Login(ctx, "writer@example.com", "Password1")
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, first.Refresh)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)

	_, err = f.service.Refresh(ctx, second.Refresh)
	require.NoError(t, err)
}

func TestRefreshExpiredRefreshToken(t *testing.T) {
	f := newServiceFixture(t)

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")

	f.now = f.now.Add(testRefreshTTL)
	_, err := f.service.Refresh(context.Background(), tokens.Refresh)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")
	identityID, err := f.service.Authorize(ctx, tokens.Access)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, tokens.Access, tokens.Refresh, identityID))

	_, err = f.service.Authorize(ctx, tokens.Access)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	_, err = f.service.Refresh(ctx, tokens.Refresh)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	ident, err := f.service.Identity(ctx, identityID)
	require.NoError(t, err)
	require.Empty(t, ident.CurrentRefreshToken)
}

func TestLogoutTwiceIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")
	identityID, err := f.service.Authorize(ctx, tokens.Access)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, tokens.Access, tokens.Refresh, identityID))
	require.NoError(t, f.service.Logout(ctx, tokens.Access, tokens.Refresh, identityID))
}

func TestLogoutWithEmptyTokens(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")
	identityID, err := f.service.Authorize(ctx, tokens.Access)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, "", "", identityID))
}

func TestAuthorizeExpiredAtBoundary(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")

	f.now = f.now.Add(testAccessTTL - time.Second)
	_, err := f.service.Authorize(ctx, tokens.Access)
	require.NoError(t, err)

	f.now = f.now.Add(time.Second)
	_, err = f.service.Authorize(ctx, tokens.Access)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestAuthorizeMissingToken(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Authorize(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrTokenMissing)
}

func TestAuthorizeGarbageToken(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Authorize(context.Background(), "garbage")
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestAuthorizeRefreshTokenFails(t *testing.T) {
	f := newServiceFixture(t)

	tokens := f.signupAndLogin(t, "writer@example.com", "Password1")

	_, err := f.service.Authorize(context.Background(), tokens.Refresh)
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestInfrastructureErrorsPropagate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.identities.Err = apperrors.ErrInfrastructure

	_, _, err := f.service.Login(ctx, "writer@example.com", "Password1")
	require.ErrorIs(t, err, apperrors.ErrInfrastructure)
	require.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.service.Signup(ctx, "writer@example.com", "Password1", "Writer")
	require.ErrorIs(t, err, apperrors.ErrInfrastructure)
}
