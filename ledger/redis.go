package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/blogkit/session-server/internal/apperrors"
	"github.com/blogkit/session-server/internal/metrics"
	"github.com/blogkit/session-server/token"
)

const revokedTokenPrefix = "revoked:token:"

var _ Ledger = (*Redis)(nil)

// Redis keeps revocation records as keys with a native TTL equal to the
// token's remaining lifetime, so eviction needs no sweeper at all. Keys are
// the SHA-256 of the token, keeping raw tokens out of the store.
type Redis struct {
	client  *redis.Client
	nowFunc func() time.Time
}

type RedisOption func(*Redis)

func WithRedisNowFunc(now func() time.Time) RedisOption {
	return func(l *Redis) {
		l.nowFunc = now
	}
}

func NewRedis(client *redis.Client, options ...RedisOption) *Redis {
	l := &Redis{client: client, nowFunc: time.Now}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *Redis) Revoke(ctx context.Context, rawToken string, kind Kind, identityID string) error {
	claims := token.DecodeUnsafe(rawToken)
	if claims == nil || claims.ExpiresAt == nil {
		return apperrors.ErrTokenInvalid
	}

	ttl := claims.ExpiresAt.Time.Sub(l.nowFunc())
	if ttl <= 0 {
		return nil // already expired, don't add it to the ledger
	}

	// SETNX keeps re-revocation a no-op and preserves the original TTL.
	created, err := l.client.SetNX(ctx, revokedKey(rawToken),
		string(kind)+":"+identityID, ttl).Result()
	if err != nil {
		return errors.Wrapf(apperrors.ErrInfrastructure, "ledger.Redis.Revoke: %v", err)
	}
	if created {
		metrics.Revocations.Inc()
	}
	return nil
}

func (l *Redis) IsRevoked(ctx context.Context, rawToken string) (bool, error) {
	n, err := l.client.Exists(ctx, revokedKey(rawToken)).Result()
	if err != nil {
		return false, errors.Wrapf(apperrors.ErrInfrastructure, "ledger.Redis.IsRevoked: %v", err)
	}
	return n > 0, nil
}

func revokedKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return revokedTokenPrefix + hex.EncodeToString(sum[:])
}
