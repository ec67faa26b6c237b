// Package checksum computes content digests used to detect changed theme
// files without relying on server timestamps, which differ between caching
// layers in front of the raw content endpoint.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the hex SHA-256 of content. It is pure and stable across
// runs and platforms.
func Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether content hashes to digest.
func Equal(content, digest string) bool {
	return digest != "" && Digest(content) == digest
}
