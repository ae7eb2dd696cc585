package unifiedlog

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"batterylog/internal/dsc"
	"batterylog/internal/timesync"
	"batterylog/internal/uuidtext"
)

// Live store locations on macOS.
const (
	SystemStringsDir       = "/private/var/db/uuidtext"
	SystemSharedStringsDir = "/private/var/db/uuidtext/dsc"
	SystemTimesyncDir      = "/private/var/db/diagnostics/timesync"
)

// Metadata is the read-only lookup data shared by every reconstruction of a
// run.
type Metadata struct {
	Strings       []*uuidtext.File
	SharedStrings []*dsc.Strings
	Boots         []timesync.Boot

	once     sync.Once
	byUUID   map[uuid.UUID]*uuidtext.File
	dscByUID map[uuid.UUID]*dsc.Strings
}

// NewMetadata bundles collected metadata.
func NewMetadata(strs []*uuidtext.File, shared []*dsc.Strings, boots []timesync.Boot) *Metadata {
	return &Metadata{Strings: strs, SharedStrings: shared, Boots: boots}
}

func (m *Metadata) index() {
	m.once.Do(func() {
		m.byUUID = make(map[uuid.UUID]*uuidtext.File, len(m.Strings))
		for _, f := range m.Strings {
			m.byUUID[f.UUID] = f
		}
		m.dscByUID = make(map[uuid.UUID]*dsc.Strings, len(m.SharedStrings))
		for _, s := range m.SharedStrings {
			m.dscByUID[s.UUID] = s
		}
	})
}

// StringTable returns the uuidtext file for an image UUID.
func (m *Metadata) StringTable(id uuid.UUID) (*uuidtext.File, bool) {
	m.index()
	f, ok := m.byUUID[id]
	return f, ok
}

// Shared returns the shared cache strings for a cache UUID.
func (m *Metadata) Shared(id uuid.UUID) (*dsc.Strings, bool) {
	m.index()
	s, ok := m.dscByUID[id]
	return s, ok
}

// CollectStrings parses the uuidtext tables stored below path.
func CollectStrings(path string) ([]*uuidtext.File, error) {
	return uuidtext.Collect(path)
}

// CollectSharedStrings parses the shared cache strings files in path.
func CollectSharedStrings(path string) ([]*dsc.Strings, error) {
	return dsc.Collect(path)
}

// CollectTimesync parses the timesync files in path.
func CollectTimesync(path string) ([]timesync.Boot, error) {
	return timesync.Collect(path)
}

// CollectStringsSystem parses the live uuidtext store.
func CollectStringsSystem() ([]*uuidtext.File, error) {
	return CollectStrings(SystemStringsDir)
}

// CollectSharedStringsSystem parses the live shared cache strings.
func CollectSharedStringsSystem() ([]*dsc.Strings, error) {
	return CollectSharedStrings(SystemSharedStringsDir)
}

// CollectTimesyncSystem parses the live timesync files.
func CollectTimesyncSystem() ([]timesync.Boot, error) {
	return CollectTimesync(SystemTimesyncDir)
}

// Dirs locates the three metadata stores.
type Dirs struct {
	Strings       string
	SharedStrings string
	Timesync      string
}

// ArchiveDirs returns the metadata locations inside a .logarchive.
func ArchiveDirs(root string) Dirs {
	return Dirs{
		Strings:       root,
		SharedStrings: filepath.Join(root, "dsc"),
		Timesync:      filepath.Join(root, "timesync"),
	}
}

// SystemDirs returns the live store locations.
func SystemDirs() Dirs {
	return Dirs{
		Strings:       SystemStringsDir,
		SharedStrings: SystemSharedStringsDir,
		Timesync:      SystemTimesyncDir,
	}
}

// Collect gathers all metadata from dirs. Any failure is returned; callers
// treat it as fatal.
func Collect(dirs Dirs) (*Metadata, error) {
	strs, err := CollectStrings(dirs.Strings)
	if err != nil {
		return nil, fmt.Errorf("collect string tables: %w", err)
	}
	shared, err := CollectSharedStrings(dirs.SharedStrings)
	if err != nil {
		return nil, fmt.Errorf("collect shared strings: %w", err)
	}
	boots, err := CollectTimesync(dirs.Timesync)
	if err != nil {
		return nil, fmt.Errorf("collect timesync: %w", err)
	}
	return NewMetadata(strs, shared, boots), nil
}
