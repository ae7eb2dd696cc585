package testsupport

import (
	"path/filepath"
	"testing"

	"batterylog/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistory enables the history store on the test config.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithStrictExtraction switches the extractor to first-entry-only mode.
func WithStrictExtraction() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extraction.Strict = true
	}
}

// WithLiveRoot points every live store path at directories below root.
func WithLiveRoot(root string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LiveTraceRoot = root
		b.cfg.Paths.LiveStringsDir = root
		b.cfg.Paths.LiveSharedStringsDir = filepath.Join(root, "dsc")
		b.cfg.Paths.LiveTimesyncDir = filepath.Join(root, "timesync")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
