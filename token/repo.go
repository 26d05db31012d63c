package token

import "context"

// Repo persists the single credential held by the client. Get returns
// errors.ErrNotFound when nothing is stored.
type Repo interface {
	Get(ctx context.Context) (*Credential, error)
	Upsert(ctx context.Context, credential *Credential) error
	Delete(ctx context.Context) error
}
