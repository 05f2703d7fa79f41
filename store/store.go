// Package store persists editor documents by name.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when no document exists under the name.
var ErrNotFound = errors.New("document not found")

// ErrInvalidName is returned for names that cannot be stored.
var ErrInvalidName = errors.New("invalid document name")

// ErrListUnsupported is returned by Names when the store cannot enumerate
// its documents.
var ErrListUnsupported = errors.New("document listing not supported")

// Store saves and loads document content by name. Content is opaque text and
// is stored verbatim.
type Store interface {
	Save(ctx context.Context, name, content string) error
	Load(ctx context.Context, name string) (string, error)
	// Names lists stored documents, most recently saved first.
	Names(ctx context.Context) ([]string, error)
}

// ValidateName rejects names that cannot safely be used as a key or file name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w %q: contains NUL", ErrInvalidName, name)
	}
	return nil
}
