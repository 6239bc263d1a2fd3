package identity

import "context"

// Repo is the persisted credential store.
//
// Implementations map their storage errors onto the apperrors sentinels:
// duplicate email on Create is apperrors.ErrConflict, a missing record is
// apperrors.ErrIdentityNotFound, and any timeout or connectivity failure is
// apperrors.ErrInfrastructure.
type Repo interface {
	Create(ctx context.Context, ident *Identity) error
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByID(ctx context.Context, id string) (*Identity, error)

	// SetRefreshToken overwrites the identity's current refresh token in a
	// single atomic write. An empty token clears it.
	SetRefreshToken(ctx context.Context, id, refreshToken string) error
}
