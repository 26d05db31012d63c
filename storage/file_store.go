package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps all values in a single JSON document on disk. Writes go to
// a temporary file that is renamed over the original.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(folder string) (*FileStore, error) {
	if folder == "" {
		return nil, fmt.Errorf("[NewFileStore] folder is required")
	}
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[NewFileStore] failed to create folder: %w", err)
	}
	return &FileStore{path: filepath.Join(folder, "storage.json")}, nil
}

func (f *FileStore) GetItem(_ context.Context, key string, out any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return false, err
	}
	data, ok := items[key]
	if !ok {
		return false, nil
	}
	if err := decode(key, data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (f *FileStore) SetItem(_ context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	items[key] = data
	return f.save(items)
}

func (f *FileStore) DeleteAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: failed to delete %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) load() (map[string]json.RawMessage, error) {
	items := make(map[string]json.RawMessage)
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: failed to read %s: %w", f.path, clienterrors.ErrStorageUnavailable)
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("storage: failed to parse %s: %w", f.path, clienterrors.ErrCorruptValue)
	}
	return items, nil
}

func (f *FileStore) save(items map[string]json.RawMessage) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("storage: failed to marshal: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("storage: failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("storage: failed to replace %s: %w", f.path, err)
	}
	return nil
}
