package identity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/blogkit/session-server/internal/apperrors"
)

const uniqueViolation = "23505"

// PostgresRepo stores identities in the identities table. Every statement is
// bounded by queryTimeout so a slow store surfaces as ErrInfrastructure
// instead of hanging a request.
type PostgresRepo struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func NewPostgresRepo(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresRepo {
	return &PostgresRepo{pool: pool, queryTimeout: queryTimeout}
}

func (r *PostgresRepo) Create(ctx context.Context, ident *Identity) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `INSERT INTO identities (id, email, password_hash, name, bio, avatar_url)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		ident.ID, ident.Email, ident.PasswordHash, ident.Name, ident.Bio, ident.AvatarURL,
	).Scan(&ident.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.ErrConflict
		}
		return classify(err, "identity.PostgresRepo.Create")
	}
	return nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.getBy(ctx, `SELECT id, email, password_hash, name, bio, avatar_url,
	                            COALESCE(current_refresh_token, ''), created_at
	                     FROM identities WHERE email = $1`, email)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*Identity, error) {
	return r.getBy(ctx, `SELECT id, email, password_hash, name, bio, avatar_url,
	                            COALESCE(current_refresh_token, ''), created_at
	                     FROM identities WHERE id = $1`, id)
}

func (r *PostgresRepo) getBy(ctx context.Context, query string, arg any) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ident := &Identity{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ident.ID, &ident.Email, &ident.PasswordHash, &ident.Name,
		&ident.Bio, &ident.AvatarURL, &ident.CurrentRefreshToken, &ident.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrIdentityNotFound
		}
		return nil, classify(err, "identity.PostgresRepo.getBy")
	}
	return ident, nil
}

// SetRefreshToken is a single UPDATE, never read-modify-write, so two
// concurrent logins for the same identity cannot lose each other's write.
func (r *PostgresRepo) SetRefreshToken(ctx context.Context, id, refreshToken string) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE identities SET current_refresh_token = NULLIF($2, '') WHERE id = $1`,
		id, refreshToken)
	if err != nil {
		return classify(err, "identity.PostgresRepo.SetRefreshToken")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrIdentityNotFound
	}
	return nil
}

// classify maps a driver failure onto the infrastructure sentinel while
// keeping the call-site context in the message.
func classify(err error, op string) error {
	return errors.Wrapf(apperrors.ErrInfrastructure, "%s: %v", op, err)
}
