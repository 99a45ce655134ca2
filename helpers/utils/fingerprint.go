package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint sinh fingerprint sha256 cho các phần của một khóa
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(p))
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// CacheKey ghép khóa cache dạng "op:version:fingerprint"
func CacheKey(operation, dataVersion string, parts ...string) string {
	return strings.Join([]string{operation, dataVersion, Fingerprint(parts...)}, ":")
}
