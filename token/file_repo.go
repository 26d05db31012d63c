package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	clienterrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const credentialFileName = "credential.bin"

var _ Repo = (*FileRepo)(nil)

// FileRepo stores the credential in a file, sealed with XChaCha20-Poly1305
// when a secret is configured.
type FileRepo struct {
	path string
	key  []byte // nil stores plaintext JSON
	mu   sync.Mutex
}

func NewFileRepo(folder, secret string) (*FileRepo, error) {
	if folder == "" {
		return nil, errors.New("[NewFileRepo] folder is required")
	}
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileRepo] MkdirAll")
	}

	r := &FileRepo{path: filepath.Join(folder, credentialFileName)}
	if secret != "" {
		key, err := deriveKey(secret)
		if err != nil {
			return nil, errors.Wrap(err, "[NewFileRepo] deriveKey")
		}
		r.key = key
	}
	return r, nil
}

func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("auth-client credential"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (r *FileRepo) Get(_ context.Context) (*Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, clienterrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FileRepo.Get: %w", clienterrors.ErrStorageUnavailable)
	}

	if r.key != nil {
		if data, err = r.open(data); err != nil {
			return nil, err
		}
	}

	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("FileRepo.Get: %w", clienterrors.ErrCorruptValue)
	}
	return &c, nil
}

func (r *FileRepo) Upsert(_ context.Context, credential *Credential) error {
	if credential == nil {
		return errors.New("FileRepo.Upsert: credential is required")
	}
	data, err := json.Marshal(credential)
	if err != nil {
		return errors.Wrap(err, "FileRepo.Upsert Marshal")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.key != nil {
		if data, err = r.seal(data); err != nil {
			return err
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "FileRepo.Upsert WriteFile")
	}
	return errors.Wrap(os.Rename(tmp, r.path), "FileRepo.Upsert Rename")
}

func (r *FileRepo) Delete(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "FileRepo.Delete")
	}
	return nil
}

func (r *FileRepo) seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(r.key)
	if err != nil {
		return nil, errors.Wrap(err, "FileRepo.seal NewX")
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "FileRepo.seal rand.Read")
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (r *FileRepo) open(ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(r.key)
	if err != nil {
		return nil, errors.Wrap(err, "FileRepo.open NewX")
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("FileRepo.open: %w", clienterrors.ErrCorruptValue)
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("FileRepo.open: %w", clienterrors.ErrCorruptValue)
	}
	return plaintext, nil
}
