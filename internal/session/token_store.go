package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
)

// TokenFileName is the single durable key the client persists.
// Absence of this file is the sole source of truth for "logged out"
// at startup.
const TokenFileName = "kickpool_token"

// TokenStore persists the bearer token across process restarts.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file under the user's
// config directory.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(dir string) (*FileTokenStore, error) {
	if strings.TrimSpace(dir) == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, crerr.Wrap(err, "resolve user config dir")
		}
		dir = filepath.Join(base, "kickpool")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, crerr.Wrap(err, "create token dir")
	}

	return &FileTokenStore{path: filepath.Join(dir, TokenFileName)}, nil
}

// Load returns the stored token, or empty when none is stored.
func (s *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", crerr.Wrap(err, "read token file")
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *FileTokenStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return crerr.New("refusing to store an empty token")
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return crerr.Wrap(err, "write token file")
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return crerr.Wrap(err, "remove token file")
	}
	return nil
}

// MemoryTokenStore is the in-process variant used by tests.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
