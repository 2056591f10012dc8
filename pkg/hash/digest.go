package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Digest returns the lowercase hex SHA-256 of secret. It is unsalted, so the
// stored value must be kept as confidential as the secret itself.
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyAdminSecret checks candidate against the stored admin credential.
// A bcrypt hash is checked with bcrypt; anything else is treated as a hex
// SHA-256 digest. Malformed input fails closed.
func VerifyAdminSecret(candidate, stored string) bool {
	if candidate == "" || stored == "" {
		return false
	}
	if IsBcrypt(stored) {
		return CheckPassword(stored, candidate)
	}

	want, err := hex.DecodeString(strings.TrimSpace(stored))
	if err != nil || len(want) != sha256.Size {
		return false
	}
	got := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(got[:], want) == 1
}

// ConstantTimeEqual compares two strings without short-circuiting on the
// first differing byte.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
