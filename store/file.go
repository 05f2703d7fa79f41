package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// FileStore keeps each document in its own file.
//
// With an empty root, names are used as paths as given. Otherwise names are
// resolved inside root and may not escape it.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir ("" for no root).
func NewFileStore(dir string) (*FileStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return &FileStore{root: dir}, nil
}

// Save writes content to name, replacing any previous content.
func (s *FileStore) Save(ctx context.Context, name, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Load returns the content saved under name.
func (s *FileStore) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("load %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", name, err)
	}
	return string(data), nil
}

// Names lists the files under root, most recently modified first. A store
// without a root has nothing to enumerate and returns ErrListUnsupported.
func (s *FileStore) Names(ctx context.Context) ([]string, error) {
	if s.root == "" {
		return nil, ErrListUnsupported
	}

	type entry struct {
		name    string
		modTime time.Time
	}
	var entries []entry
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{name: filepath.ToSlash(rel), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names, nil
}

func (s *FileStore) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if s.root == "" {
		return name, nil
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w %q: absolute path", ErrInvalidName, name)
	}
	path := filepath.Join(s.root, name)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w %q: outside store", ErrInvalidName, name)
	}
	return path, nil
}

// Verify FileStore implements Store
var _ Store = (*FileStore)(nil)
