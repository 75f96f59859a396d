// Package credstore persists the authenticated identity across runs. Nothing
// else survives a restart; files, readiness and history are always re-fetched.
package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

type Credential struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Default stores credentials under the user config dir.
func Default() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(base, "proxima")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return New(filepath.Join(dir, "credentials.json")), nil
}

func (s *Store) Save(cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

// Load returns the stored credential, or nil when none exists.
func (s *Store) Load() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cred Credential
	if err := json.Unmarshal(b, &cred); err != nil {
		return nil, err
	}
	if cred.Token == "" {
		return nil, nil
	}
	return &cred, nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
