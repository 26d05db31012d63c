package storage

import (
	"context"
	"encoding/json"
	"fmt"

	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// Well-known keys.
const (
	KeyClientID       = "clientId"
	KeyInstallationID = "installationId"
)

// Store persists small pieces of durable client state as JSON values.
type Store interface {
	// GetItem decodes the value stored under key into out. It reports false
	// when the key is absent.
	GetItem(ctx context.Context, key string, out any) (bool, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key string, value any) error

	// DeleteAll removes every key owned by the store.
	DeleteAll(ctx context.Context) error
}

// Get is the typed form of Store.GetItem.
func Get[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var value T
	ok, err := s.GetItem(ctx, key, &value)
	if err != nil || !ok {
		return *new(T), false, err
	}
	return value, true, nil
}

func encode(key string, value any) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("storage: key is required: %w", clienterrors.ErrInvalidRequest)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to marshal %q: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("storage: failed to unmarshal %q: %w", key, clienterrors.ErrCorruptValue)
	}
	return nil
}
