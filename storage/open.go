package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open builds the store selected by the storage backend setting.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.GetStorageBackend() {
	case config.StorageMemory:
		return NewMemoryStore(), nil
	case config.StorageFile:
		return NewFileStore(cfg.GetDataFolder())
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("[storage.Open] redis ping: %w", err)
		}
		return NewRedisStore(client, ""), nil
	case config.StorageSQLite:
		path := cfg.GetSQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("[storage.Open] failed to create folder: %w", err)
		}
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
		if err != nil {
			return nil, fmt.Errorf("[storage.Open] sqlite: %w", err)
		}
		return NewGormStore(db)
	default:
		return nil, fmt.Errorf("[storage.Open] unknown storage backend %q", cfg.GetStorageBackend())
	}
}
