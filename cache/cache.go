// Package cache provides phrase cache implementations.
package cache

import "fmt"

// PhraseCache maps a source phrase to its translation.
type PhraseCache interface {
	// Lookup returns the cached translation of phrase, if any.
	Lookup(phrase string) (string, bool)

	// Insert stores the translation of phrase.
	Insert(phrase, translation string) error
}

// CacheError indicates a cache backend failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}
