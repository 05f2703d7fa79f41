package phrasebook

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashPhrase computes the SHA-256 hash of the trimmed phrase.
func HashPhrase(phrase string) string {
	trimmed := strings.TrimSpace(phrase)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}
