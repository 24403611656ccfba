// Package fingerprint hashes normalized page content.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Of returns the lowercase hex SHA-256 digest of content.
func Of(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Hasher adapts Of to an injectable value.
type Hasher struct{}

// New returns the SHA-256 Hasher.
func New() *Hasher {
	return &Hasher{}
}

// Fingerprint is Of(content).
func (h *Hasher) Fingerprint(content string) string {
	return Of(content)
}
