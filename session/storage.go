package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenKey is the single key under which the token is persisted.
const TokenKey = "token"

// TokenStorage persists the raw token string across process restarts.
// Load returns "" with a nil error when nothing is stored.
type TokenStorage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}

// MemoryStorage keeps the token for the lifetime of the process only.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// FileStorage keeps the token in a single file readable only by its owner.
type FileStorage struct {
	path string
}

// NewFileStorage returns a FileStorage writing to path. Parent directories
// are created on the first Save.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the file the token is stored in.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Load(context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("could not read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Save replaces the file atomically.
func (f *FileStorage) Save(_ context.Context, token string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("could not create token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(token); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("could not write token file: %w", err)
	}
	return nil
}

func (f *FileStorage) Remove(context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not remove token file: %w", err)
	}
	return nil
}
