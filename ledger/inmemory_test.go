package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blogkit/session-server/internal/apperrors"
	"github.com/blogkit/session-server/token"
)

type ledgerFixture struct {
	ledger *InMemory
	codec  *token.Codec
	now    time.Time
}

func newLedgerFixture(t *testing.T, tokenLifetime time.Duration) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{now: time.Now()}
	f.ledger = NewInMemory(WithNowFunc(func() time.Time { return f.now }))
	f.codec = token.NewCodec("in-memory-ledger-test-secret-123", tokenLifetime, "session-server",
		token.WithNowFunc(func() time.Time { return f.now }))
	return f
}

func TestRevokeThenIsRevoked(t *testing.T) {
	f := newLedgerFixture(t, time.Hour)
	ctx := context.Background()

	raw, err := f.codec.Issue("identity-1")
	require.NoError(t, err)

	revoked, err := f.ledger.IsRevoked(ctx, raw)
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, f.ledger.Revoke(ctx, raw, KindAccess, "identity-1"))

	revoked, err = f.ledger.IsRevoked(ctx, raw)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t, time.Hour)
	ctx := context.Background()

	raw, err := f.codec.Issue("identity-1")
	require.NoError(t, err)

	require.NoError(t, f.ledger.Revoke(ctx, raw, KindRefresh, "identity-1"))
	require.NoError(t, f.ledger.Revoke(ctx, raw, KindRefresh, "identity-1"))

	revoked, err := f.ledger.IsRevoked(ctx, raw)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevokeMalformedToken(t *testing.T) {
	f := newLedgerFixture(t, time.Hour)

	err := f.ledger.Revoke(context.Background(), "not-a-token", KindAccess, "identity-1")
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestRevokeAlreadyExpiredTokenIsNoOp(t *testing.T) {
	f := newLedgerFixture(t, time.Hour)
	ctx := context.Background()

	raw, err := f.codec.Issue("identity-1")
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	require.NoError(t, f.ledger.Revoke(ctx, raw, KindAccess, "identity-1"))
	require.Zero(t, f.ledger.Cleanup())
}

func TestExpiredRecordsReadAsAbsentBeforeCleanup(t *testing.T) {
	f := newLedgerFixture(t, time.Hour)
	ctx := context.Background()

	raw, err := f.codec.Issue("identity-1")
	require.NoError(t, err)
	require.NoError(t, f.ledger.Revoke(ctx, raw, KindAccess, "identity-1"))

	// The record has expired but the sweeper has not run yet. Reads must not
	// depend on eviction timing.
	f.now = f.now.Add(2 * time.Hour)
	revoked, err := f.ledger.IsRevoked(ctx, raw)
	require.NoError(t, err)
	require.False(t, revoked)

	require.Equal(t, 1, f.ledger.Cleanup())
	require.Zero(t, f.ledger.Cleanup())
}

func TestCleanupKeepsLiveRecords(t *testing.T) {
	f := newLedgerFixture(t, time.Hour)
	ctx := context.Background()

	shortCodec := token.NewCodec("in-memory-ledger-test-secret-123", time.Minute, "session-server",
		token.WithNowFunc(func() time.Time { return f.now }))

	longLived, err := f.codec.Issue("identity-1")
	require.NoError(t, err)
	shortLived, err := shortCodec.Issue("identity-1")
	require.NoError(t, err)

	require.NoError(t, f.ledger.Revoke(ctx, longLived, KindRefresh, "identity-1"))
	require.NoError(t, f.ledger.Revoke(ctx, shortLived, KindAccess, "identity-1"))

	f.now = f.now.Add(30 * time.Minute)
	require.Equal(t, 1, f.ledger.Cleanup())

	revoked, err := f.ledger.IsRevoked(ctx, longLived)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestSweepAdaptsCleanup(t *testing.T) {
	f := newLedgerFixture(t, time.Minute)
	ctx := context.Background()

	raw, err := f.codec.Issue("identity-1")
	require.NoError(t, err)
	require.NoError(t, f.ledger.Revoke(ctx, raw, KindAccess, "identity-1"))

	f.now = f.now.Add(2 * time.Minute)
	removed, err := f.ledger.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}
