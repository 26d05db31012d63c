package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

type StorageConfig interface {
	GetStorageBackend() string
	GetDataFolder() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetSQLitePath() string
	GetTokenEncryptionKey() string
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

// GetStorageBackend returns one of memory, file, redis or sqlite.
func (s Storage) GetStorageBackend() string {
	return GetEnv(s.v, "storage.backend", StorageFile)
}

func (s Storage) GetDataFolder() string {
	return GetEnv(s.v, "storage.folder", "./data")
}

func (s Storage) GetRedisAddr() string {
	return GetEnv(s.v, "storage.redis_addr", "localhost:6379")
}

func (s Storage) GetRedisPassword() string {
	return GetEnv(s.v, "storage.redis_password", "")
}

func (s Storage) GetSQLitePath() string {
	return GetEnv(s.v, "storage.sqlite_path", filepath.Join(s.GetDataFolder(), "client.db"))
}

// GetTokenEncryptionKey returns the secret the credential file is sealed with.
// An empty key stores the credential file unencrypted.
func (s Storage) GetTokenEncryptionKey() string {
	return GetEnv(s.v, "storage.token_key", "")
}
