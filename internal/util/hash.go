package util

import (
	"crypto/sha1"
	"fmt"
	"net/http"
)

// ContentHash returns the SHA1 hex digest of a byte slice.
// Stored on media rows so re-imports of the same photo can be detected
// without comparing blobs.
func ContentHash(data []byte) string {
	h := sha1.Sum(data)
	return fmt.Sprintf("%x", h)
}

// SniffMimeType detects the MIME type of raw image bytes.
// Falls back to application/octet-stream for unknown content.
func SniffMimeType(data []byte) string {
	return http.DetectContentType(data)
}
