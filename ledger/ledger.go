// Package ledger is the revocation store: tokens explicitly invalidated
// before their natural expiry. Writes are append-only; a record is never
// updated in place and is evicted automatically once its expiry passes.
package ledger

import (
	"context"
	"time"
)

// Kind distinguishes which codec issued a revoked token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Record is one revoked token. ExpiresAt is copied from the claims embedded
// in the token itself, so the ledger never outlives the token it protects
// against.
type Record struct {
	Token      string
	Kind       Kind
	IdentityID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Ledger stores revoked tokens until their own expiry.
//
// IsRevoked is logically "exists(token) AND expiry > now": an expired record
// must read as absent even if eviction has not physically run yet. Eviction
// is a garbage-collection optimization, not the source of truth.
//
// Revoke decodes the token's expiry itself (unverified decode) and fails with
// apperrors.ErrTokenInvalid when the token carries no expiry claim. Revoking
// an already-revoked or already-expired token is a no-op.
type Ledger interface {
	Revoke(ctx context.Context, rawToken string, kind Kind, identityID string) error
	IsRevoked(ctx context.Context, rawToken string) (bool, error)
}
