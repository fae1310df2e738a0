// Package tokenstore remembers a single device token on disk between runs.
package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists one device token as plaintext at a fixed path. The file
// exists only while the operator has asked for the token to be remembered.
type Store struct {
	path string
}

// New returns a store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Persist writes token verbatim, replacing any previous content. The
// containing directory is created if it does not exist.
func (s *Store) Persist(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp token file: %w", err)
	}

	// CreateTemp already uses 0600, but be explicit about the final mode.
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("setting token file mode: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}

	return nil
}

// Erase removes the token file. It is a no-op if the file does not exist.
func (s *Store) Erase() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// Load returns the remembered token and whether one exists.
func (s *Store) Load() (string, bool, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading token file: %w", err)
	}

	return strings.TrimSpace(string(b)), true, nil
}
