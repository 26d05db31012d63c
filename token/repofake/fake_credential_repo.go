package tokenfakerepo

import (
	"context"
	"sync"

	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/token"
)

var _ token.Repo = (*FakeCredentialRepo)(nil)

type FakeCredentialRepo struct {
	credential *token.Credential
	lock       sync.RWMutex

	// GetErr, when set, is returned by Get.
	GetErr error
}

func NewFakeCredentialRepo() *FakeCredentialRepo {
	return &FakeCredentialRepo{}
}

func (r *FakeCredentialRepo) Get(_ context.Context) (*token.Credential, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	if r.credential == nil {
		return nil, clienterrors.ErrNotFound
	}
	c := *r.credential
	return &c, nil
}

func (r *FakeCredentialRepo) Upsert(_ context.Context, credential *token.Credential) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	c := *credential
	r.credential = &c
	return nil
}

func (r *FakeCredentialRepo) Delete(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.credential = nil
	return nil
}
