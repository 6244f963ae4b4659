package shortener

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashURL computes a SHA256 hash of the exact long URL, hex encoded.
// Stores use it as a fixed-size index key for long URL lookups.
func HashURL(longURL string) string {
	h := sha256.Sum256([]byte(longURL))

	return hex.EncodeToString(h[:])
}
