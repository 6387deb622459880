package stores

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nrednav/authkit"
)

// YAMLStore persists credential state as a YAML document on disk.
// Writes go through a temp file and rename, so a crash mid-save leaves
// the previous state intact.
type YAMLStore struct {
	path string
}

// NewYAMLStore returns a store backed by the file at path. The file
// does not need to exist yet; Load treats a missing file as empty
// state.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Load reads and decodes the state file.
func (s *YAMLStore) Load() (authkit.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return authkit.State{}, nil
		}
		return authkit.State{}, fmt.Errorf("read state file: %w", err)
	}

	var state authkit.State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return authkit.State{}, fmt.Errorf("decode state file: %w", err)
	}
	return state, nil
}

// Save encodes state and atomically replaces the file.
func (s *YAMLStore) Save(state authkit.State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".authkit-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
