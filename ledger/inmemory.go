package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/blogkit/session-server/internal/apperrors"
	"github.com/blogkit/session-server/internal/metrics"
	"github.com/blogkit/session-server/token"
)

var _ Ledger = (*InMemory)(nil)

// InMemory is a single-node Ledger backed by a map. It serves tests and
// development; production deployments use the Postgres or Redis backends.
type InMemory struct {
	revoked map[string]Record
	mu      sync.RWMutex
	nowFunc func() time.Time
}

type InMemoryOption func(*InMemory)

func WithNowFunc(now func() time.Time) InMemoryOption {
	return func(l *InMemory) {
		l.nowFunc = now
	}
}

func NewInMemory(options ...InMemoryOption) *InMemory {
	l := &InMemory{
		revoked: make(map[string]Record),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *InMemory) Revoke(_ context.Context, rawToken string, kind Kind, identityID string) error {
	claims := token.DecodeUnsafe(rawToken)
	if claims == nil || claims.ExpiresAt == nil {
		return apperrors.ErrTokenInvalid
	}

	now := l.nowFunc()
	if !claims.ExpiresAt.Time.After(now) {
		return nil // already expired, nothing to protect against
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.revoked[rawToken]; exists {
		return nil
	}
	l.revoked[rawToken] = Record{
		Token:      rawToken,
		Kind:       kind,
		IdentityID: identityID,
		ExpiresAt:  claims.ExpiresAt.Time,
		CreatedAt:  now,
	}
	metrics.Revocations.Inc()
	return nil
}

func (l *InMemory) IsRevoked(_ context.Context, rawToken string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, exists := l.revoked[rawToken]
	if !exists {
		return false, nil
	}
	// Expired records read as absent even before Cleanup runs.
	return rec.ExpiresAt.After(l.nowFunc()), nil
}

// Cleanup removes expired entries. The sweeper calls it on a ticker.
func (l *InMemory) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	removed := 0
	for tok, rec := range l.revoked {
		if !rec.ExpiresAt.After(now) {
			delete(l.revoked, tok)
			removed++
		}
	}
	return removed
}
