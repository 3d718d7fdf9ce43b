package extractor

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns the hex-encoded BLAKE2b-256 hash of normalized text.
// The hash is computed over extraction-normalized text rather than raw
// bytes, so whitespace and markup churn between otherwise identical pages
// yields the same fingerprint. Empty text yields an empty fingerprint so
// textless pages never collide with each other as "duplicates".
func Fingerprint(text string) string {
	if text == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
