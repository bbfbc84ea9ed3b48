package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists each slot as a JSON file under a state directory.
type FileStore struct {
	dir string
}

// Compile-time check
var _ Store = (*FileStore)(nil)

// NewFileStore creates the state directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(slot string) string {
	// Slot names are internal constants, but keep path traversal out anyway.
	clean := strings.ReplaceAll(filepath.Base(slot), string(os.PathSeparator), "-")
	return filepath.Join(s.dir, clean+".json")
}

// Read returns the slot payload, or ErrNotFound when it was never written.
func (s *FileStore) Read(slot string) ([]byte, error) {
	data, err := os.ReadFile(s.path(slot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return data, nil
}

// Write replaces the slot payload atomically via a temp file rename.
func (s *FileStore) Write(slot string, payload []byte) error {
	target := s.path(slot)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace slot %s: %w", slot, err)
	}
	return nil
}
