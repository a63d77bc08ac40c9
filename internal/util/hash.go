package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintChunks hashes an ordered chunk list; the separator keeps
// ["ab","c"] and ["a","bc"] apart.
func FingerprintChunks(chunks []string) string {
	h := sha256.New()
	for _, c := range chunks {
		_, _ = h.Write([]byte(c))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
