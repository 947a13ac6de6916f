package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileStateStore keeps one JSON file per key in a directory.
// Writes go to a temporary file that is renamed over the target.
type FileStateStore struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

// NewFileStateStore creates a store rooted at dir on fs, creating dir if needed
func NewFileStateStore(fs afero.Fs, dir string, logger *zap.Logger) (*FileStateStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &FileStateStore{fs: fs, dir: dir, logger: logger}, nil
}

// Get reads the file for key
func (s *FileStateStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}
	return data, nil
}

// Put writes data for key atomically
func (s *FileStateStore) Put(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		if rmErr := s.fs.Remove(tmp); rmErr != nil {
			s.logger.Warn("failed to remove temporary state file", zap.String("path", tmp), zap.Error(rmErr))
		}
		return fmt.Errorf("failed to replace state file %s: %w", path, err)
	}

	s.logger.Debug("state file written", zap.String("path", path), zap.Int("size_bytes", len(data)))
	return nil
}

// Delete removes the file for key
func (s *FileStateStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete state file %s: %w", path, err)
	}
	return nil
}

func (s *FileStateStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid state key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}
