// Package crypto derives the opaque owner identifier used to bind clips to
// accounts. The raw email address is never persisted or compared; only its
// SHA-256 digest, rendered as lowercase hex, leaves this package.
package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashEmail returns the SHA-256 digest of the verified email address as
// lowercase hex. The input is hashed exactly as provided; normalization
// (trimming, case folding) is the identity provider's responsibility.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// EqualHashes compares two owner hashes in constant time.
func EqualHashes(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
