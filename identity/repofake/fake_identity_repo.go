package fakeidentityrepo

import (
	"context"
	"sync"

	"github.com/blogkit/session-server/identity"
	"github.com/blogkit/session-server/internal/apperrors"
)

var _ identity.Repo = (*FakeIdentityRepo)(nil)

// FakeIdentityRepo is an in-memory identity.Repo for tests. Set Err to force
// every call to fail with that error (e.g. apperrors.ErrInfrastructure).
type FakeIdentityRepo struct {
	identities map[string]*identity.Identity
	emailIds   map[string]string // email to identity id
	lock       sync.RWMutex

	Err error
}

func NewFakeIdentityRepo() *FakeIdentityRepo {
	return &FakeIdentityRepo{
		identities: make(map[string]*identity.Identity),
		emailIds:   make(map[string]string),
	}
}

func (ir *FakeIdentityRepo) Create(_ context.Context, ident *identity.Identity) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	if ir.Err != nil {
		return ir.Err
	}
	if _, ok := ir.emailIds[ident.Email]; ok {
		return apperrors.ErrConflict
	}

	stored := *ident
	ir.identities[ident.ID] = &stored
	ir.emailIds[ident.Email] = ident.ID
	return nil
}

func (ir *FakeIdentityRepo) GetByEmail(_ context.Context, email string) (*identity.Identity, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	if ir.Err != nil {
		return nil, ir.Err
	}
	id, ok := ir.emailIds[email]
	if !ok {
		return nil, apperrors.ErrIdentityNotFound
	}
	copied := *ir.identities[id]
	return &copied, nil
}

func (ir *FakeIdentityRepo) GetByID(_ context.Context, id string) (*identity.Identity, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	if ir.Err != nil {
		return nil, ir.Err
	}
	ident, ok := ir.identities[id]
	if !ok {
		return nil, apperrors.ErrIdentityNotFound
	}
	copied := *ident
	return &copied, nil
}

func (ir *FakeIdentityRepo) SetRefreshToken(_ context.Context, id, refreshToken string) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	if ir.Err != nil {
		return ir.Err
	}
	ident, ok := ir.identities[id]
	if !ok {
		return apperrors.ErrIdentityNotFound
	}
	ident.CurrentRefreshToken = refreshToken
	return nil
}
