package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/blogkit/session-server/internal/apperrors"
	"github.com/blogkit/session-server/internal/metrics"
	"github.com/blogkit/session-server/token"
)

var _ Ledger = (*Postgres)(nil)

// Postgres stores revocation records in the revoked_tokens table. Eviction is
// a background DELETE on a ticker; the IsRevoked predicate applies
// "expires_at > now" itself and never depends on the sweep having run.
type Postgres struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	nowFunc      func() time.Time
}

type PostgresOption func(*Postgres)

func WithPostgresNowFunc(now func() time.Time) PostgresOption {
	return func(l *Postgres) {
		l.nowFunc = now
	}
}

func NewPostgres(pool *pgxpool.Pool, queryTimeout time.Duration, options ...PostgresOption) *Postgres {
	l := &Postgres{pool: pool, queryTimeout: queryTimeout, nowFunc: time.Now}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *Postgres) Revoke(ctx context.Context, rawToken string, kind Kind, identityID string) error {
	claims := token.DecodeUnsafe(rawToken)
	if claims == nil || claims.ExpiresAt == nil {
		return apperrors.ErrTokenInvalid
	}

	now := l.nowFunc()
	if !claims.ExpiresAt.Time.After(now) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.queryTimeout)
	defer cancel()

	// ON CONFLICT DO NOTHING makes re-revocation a no-op, never a second write.
	tag, err := l.pool.Exec(ctx,
		`INSERT INTO revoked_tokens (token, kind, identity_id, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token) DO NOTHING`,
		rawToken, string(kind), identityID, claims.ExpiresAt.Time)
	if err != nil {
		return errors.Wrapf(apperrors.ErrInfrastructure, "ledger.Postgres.Revoke: %v", err)
	}
	if tag.RowsAffected() > 0 {
		metrics.Revocations.Inc()
	}
	return nil
}

func (l *Postgres) IsRevoked(ctx context.Context, rawToken string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.queryTimeout)
	defer cancel()

	var revoked bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token = $1 AND expires_at > $2)`,
		rawToken, l.nowFunc()).Scan(&revoked)
	if err != nil {
		return false, errors.Wrapf(apperrors.ErrInfrastructure, "ledger.Postgres.IsRevoked: %v", err)
	}
	return revoked, nil
}

// Sweep deletes records whose expiry has passed and returns how many.
func (l *Postgres) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, l.queryTimeout)
	defer cancel()

	tag, err := l.pool.Exec(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at <= $1`, l.nowFunc())
	if err != nil {
		return 0, errors.Wrapf(apperrors.ErrInfrastructure, "ledger.Postgres.Sweep: %v", err)
	}
	return tag.RowsAffected(), nil
}
