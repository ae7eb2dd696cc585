// Package fileutil digests evidence files.
package fileutil

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// DigestPrefix tags digests produced by HashFile.
const DigestPrefix = "blake3:"

// HashFile streams path through BLAKE3 and returns the prefixed hex digest.
func HashFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, in); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return DigestPrefix + hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashBytes returns the prefixed hex BLAKE3 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return DigestPrefix + hex.EncodeToString(sum[:])
}
