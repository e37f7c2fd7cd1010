// Package hasher provides streaming SHA-256 content fingerprinting.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/cloo-solutions/docvault/internal/domain"
)

// blockSize bounds per-read memory so large inputs are never materialized.
const blockSize = 32 * 1024

// Hash consumes the reader and returns the lower-case hex SHA-256 digest of
// its bytes plus the byte count. A short or failed read returns a ReadError;
// the caller must treat that as fatal for the upload, since no content
// identity exists for bytes that could not be fully consumed.
func Hash(r io.Reader) (digest string, size int64, err error) {
	h := sha256.New()
	buf := make([]byte, blockSize)

	size, err = io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", 0, domain.NewReadError(err)
	}

	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// HashBytes is a convenience wrapper for callers that already hold the
// content in memory.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
