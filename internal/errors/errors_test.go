package errors_test

import (
	"errors"
	"testing"

	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	require.NoError(t, clienterrors.Wrapf(nil, "Store.SetTokens"))

	err := clienterrors.Wrapf(clienterrors.ErrStorageUnavailable, "read %s", "clientId")
	require.ErrorIs(t, err, clienterrors.ErrStorageUnavailable)
	require.Equal(t, "read clientId: storage unavailable", err.Error())
	require.False(t, errors.Is(err, clienterrors.ErrNotFound))
}
