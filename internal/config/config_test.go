package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"batterylog/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvStateDir, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "batterylog", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "batterylog")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.History.Path != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.Paths.LiveTraceRoot != "/private/var/db/diagnostics" {
		t.Fatalf("unexpected live trace root: %q", cfg.Paths.LiveTraceRoot)
	}
	if cfg.Paths.LiveSharedStringsDir != "/private/var/db/uuidtext/dsc" {
		t.Fatalf("unexpected shared strings dir: %q", cfg.Paths.LiveSharedStringsDir)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Extraction.Strict {
		t.Fatal("expected lenient extraction by default")
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if got := cfg.HistoryLockPath(); got != cfg.History.Path+".lock" {
		t.Fatalf("unexpected lock path: %q", got)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvStateDir, "")

	configPath := filepath.Join(t.TempDir(), "batterylog.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"live_trace_root": "~/diag",
			"state_dir":       "~/state",
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
		"extraction": map[string]any{
			"strict": true,
		},
		"history": map[string]any{
			"enabled": false,
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.LiveTraceRoot != filepath.Join(tempHome, "diag") {
		t.Fatalf("unexpected live trace root: %q", cfg.Paths.LiveTraceRoot)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.LiveStringsDir != "/private/var/db/uuidtext" {
		t.Fatalf("expected untouched default strings dir, got %q", cfg.Paths.LiveStringsDir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
	if !cfg.Extraction.Strict {
		t.Fatal("expected strict extraction")
	}
	if cfg.History.Enabled {
		t.Fatal("expected history disabled")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsInvalidLogging(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestStateDirEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	override := t.TempDir()
	t.Setenv(config.EnvStateDir, override)
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.StateDir != override {
		t.Fatalf("expected env state dir %q, got %q", override, cfg.Paths.StateDir)
	}
	if cfg.History.Path != filepath.Join(override, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
}

func TestProjectConfigFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvStateDir, "")
	project := t.TempDir()
	t.Chdir(project)
	if err := os.WriteFile("batterylog.toml", []byte("[extraction]\nstrict = true\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected project config to be found")
	}
	if filepath.Base(resolved) != "batterylog.toml" {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if !cfg.Extraction.Strict {
		t.Fatal("expected strict extraction from project config")
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvStateDir, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected sample logging format: %q", cfg.Logging.Format)
	}
}

func TestEnsureStateDir(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.History.Path = filepath.Join(base, "db", "history.db")
	if err := cfg.EnsureStateDir(); err != nil {
		t.Fatalf("EnsureStateDir: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, filepath.Dir(cfg.History.Path)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/logs")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "logs") {
		t.Fatalf("unexpected expansion: %q", got)
	}
	if got, _ := config.ExpandPath(""); got != "" {
		t.Fatalf("expected empty path to stay empty, got %q", got)
	}
}
