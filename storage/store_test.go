package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type profile struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func runStoreContract(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := storage.Get[string](ctx, s, "missing")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, v)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.SetItem(ctx, storage.KeyClientID, "42"))
		v, ok, err := storage.Get[string](ctx, s, storage.KeyClientID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "42", v)
	})

	t.Run("overwrite struct", func(t *testing.T) {
		require.NoError(t, s.SetItem(ctx, "profile", profile{Name: "a", Count: 1}))
		require.NoError(t, s.SetItem(ctx, "profile", profile{Name: "b", Count: 2}))
		v, ok, err := storage.Get[profile](ctx, s, "profile")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, profile{Name: "b", Count: 2}, v)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		err := s.SetItem(ctx, "", "x")
		require.ErrorIs(t, err, clienterrors.ErrInvalidRequest)
	})

	t.Run("delete all", func(t *testing.T) {
		require.NoError(t, s.DeleteAll(ctx))
		_, ok, err := storage.Get[string](ctx, s, storage.KeyClientID)
		require.NoError(t, err)
		require.False(t, ok)
		require.NoError(t, s.DeleteAll(ctx))
	})

	t.Run("type mismatch is corrupt value", func(t *testing.T) {
		require.NoError(t, s.SetItem(ctx, "n", 12))
		_, _, err := storage.Get[profile](ctx, s, "n")
		require.ErrorIs(t, err, clienterrors.ErrCorruptValue)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, storage.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storage.json"), []byte("{not json"), 0o600))

	_, _, err = storage.Get[string](context.Background(), s, storage.KeyClientID)
	require.ErrorIs(t, err, clienterrors.ErrCorruptValue)

	// DeleteAll recovers from a corrupt document.
	require.NoError(t, s.DeleteAll(context.Background()))
	_, ok, err := storage.Get[string](context.Background(), s, storage.KeyClientID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGormStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "items.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	s, err := storage.NewGormStore(db)
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("AUTH_CLIENT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AUTH_CLIENT_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	runStoreContract(t, storage.NewRedisStore(client, "auth-client-test:"))
}

func TestInstallationID(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()

	id, err := storage.InstallationID(ctx, s)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := storage.InstallationID(ctx, s)
	require.NoError(t, err)
	require.Equal(t, id, again)

	require.NoError(t, s.DeleteAll(ctx))
	fresh, err := storage.InstallationID(ctx, s)
	require.NoError(t, err)
	require.NotEqual(t, id, fresh)
}
