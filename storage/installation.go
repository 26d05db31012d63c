package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// InstallationID returns the identifier of this installation, creating and
// persisting a new one if none is stored. A logout deletes it along with the
// rest of the durable state.
func InstallationID(ctx context.Context, s Store) (string, error) {
	id, ok, err := Get[string](ctx, s, KeyInstallationID)
	if err != nil {
		return "", errors.Wrap(err, "InstallationID read")
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := s.SetItem(ctx, KeyInstallationID, id); err != nil {
		return "", errors.Wrap(err, "InstallationID write")
	}
	return id, nil
}
