package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

type credentialsFile struct {
	Token string `toml:"token"`
}

// FileStore keeps the token in a TOML file readable only by the owner.
// Readers and writers coordinate through an adjacent lock file so a login in
// one process never exposes a half-written file to another.
type FileStore struct {
	path string
	lock *flock.Flock
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

func (s *FileStore) Token() (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", err
	}
	if err := s.lock.RLock(); err != nil {
		return "", fmt.Errorf("locking credentials: %w", err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("reading credentials: %w", err)
	}

	var cf credentialsFile
	if err := toml.Unmarshal(data, &cf); err != nil {
		return "", fmt.Errorf("parsing credentials: %w", err)
	}
	if strings.TrimSpace(cf.Token) == "" {
		return "", ErrNoCredential
	}
	return cf.Token, nil
}

func (s *FileStore) Save(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking credentials: %w", err)
	}
	defer s.lock.Unlock()

	data, err := toml.Marshal(credentialsFile{Token: token})
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Delete() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking credentials: %w", err)
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	return nil
}
