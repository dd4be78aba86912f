// Package auth covers the two access gates: per-project passwords supplied by
// end users, and the operator-level admin credential.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the hex-encoded SHA-256 digest of a project password.
// The digest is deterministic and unsalted so verification is a plain
// recompute-and-compare; identical passwords produce identical digests across
// projects. This matches how stored project credentials have always been
// written: changing the scheme would lock every existing project out.
func HashPassword(cleartext string) string {
	sum := sha256.Sum256([]byte(cleartext))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether cleartext hashes to storedDigest.
// A mismatch is an expected outcome, not an error.
func VerifyPassword(cleartext, storedDigest string) bool {
	computed := HashPassword(cleartext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedDigest)) == 1
}
