package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashFileMatchesHashBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.tracev3")
	content := []byte("hello world")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != HashBytes(content) {
		t.Fatalf("digest mismatch: %s vs %s", got, HashBytes(content))
	}
	if !strings.HasPrefix(got, DigestPrefix) || len(got) != len(DigestPrefix)+64 {
		t.Fatalf("unexpected digest form %q", got)
	}
}

func TestHashBytesKnownVector(t *testing.T) {
	const empty = "blake3:af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := HashBytes(nil); got != empty {
		t.Fatalf("empty digest = %s", got)
	}
}

func TestHashFile_MissingSource(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
