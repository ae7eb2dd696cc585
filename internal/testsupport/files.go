package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// HexName renders a UUID the way the log store names files: upper case hex
// without separators.
func HexName(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}

// WriteUUIDText stores a uuidtext image under root using the <XX>/<rest>
// layout and returns its path.
func WriteUUIDText(t testing.TB, root string, id uuid.UUID, data []byte) string {
	t.Helper()

	name := HexName(id)
	return WriteFile(t, filepath.Join(root, name[:2], name[2:]), data)
}

// NewArchive creates an empty archive directory with the dsc and timesync
// subdirectories a log collection produces.
func NewArchive(t testing.TB) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "system.logarchive")
	for _, dir := range []string{"dsc", "timesync"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return root
}
