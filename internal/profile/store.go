// Package profile persists the last-used CMA login profile across
// console restarts.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store remembers the last-used profile name. Persistence is
// best-effort for the login flow: callers log write failures and
// continue.
type Store interface {
	// Load returns the remembered profile name, or "" when none is set.
	Load() (string, error)

	// Save remembers the given profile name.
	Save(name string) error

	// Clear forgets the remembered profile name.
	Clear() error
}

// fileData is the on-disk shape. The single lastProfile field is the
// one fixed key the console persists.
type fileData struct {
	Version     string `json:"version"`
	LastProfile string `json:"last_profile,omitempty"`
}

// FileStore implements Store using a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-based profile store. If path is empty,
// defaults to ~/.config/cma-console/profile.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".config", "cma-console", "profile.json")
	}
	return &FileStore{path: path}, nil
}

// Load reads the remembered profile name from disk. A missing file is
// not an error: it means nothing has been remembered yet.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read profile file: %w", err)
	}
	var d fileData
	if err := json.Unmarshal(data, &d); err != nil {
		return "", fmt.Errorf("failed to decode profile file: %w", err)
	}
	return d.LastProfile, nil
}

// Save writes the profile name to disk via a temp file and atomic
// rename.
func (s *FileStore) Save(name string) error {
	return s.write(fileData{Version: "1.0", LastProfile: name})
}

// Clear removes the remembered profile name. Clearing an already-empty
// store is a no-op.
func (s *FileStore) Clear() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	return s.write(fileData{Version: "1.0"})
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) write(d fileData) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile file: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp profile file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp profile file: %w", err)
	}
	return nil
}
