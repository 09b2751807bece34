package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// LocalStorage keeps artifacts in a directory on disk
type LocalStorage struct {
	dir string
}

// Ensure LocalStorage implements StorageInterface
var _ StorageInterface = (*LocalStorage)(nil)

// NewLocalStorage creates the output directory if needed
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &LocalStorage{dir: abs}, nil
}

// Store writes data to a temporary file beside the target and renames it into place,
// so readers never observe a partially written file.
func (s *LocalStorage) Store(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	logrus.Debugf("Stored %s (%d bytes)", path, len(data))
	return nil
}

// Retrieve reads a stored file, returning ErrNotFound when it is absent
func (s *LocalStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// List returns stored names starting with prefix, sorted
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	sort.Strings(names)
	return names, nil
}

// Location returns the absolute path of name
func (s *LocalStorage) Location(name string) string {
	return s.path(name)
}

// Dir returns the storage root
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(filepath.Clean("/" + name)))
}
