package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateHistory()
}

func (c *Config) validatePaths() error {
	for name, value := range map[string]string{
		"paths.live_trace_root":         c.Paths.LiveTraceRoot,
		"paths.live_strings_dir":        c.Paths.LiveStringsDir,
		"paths.live_shared_strings_dir": c.Paths.LiveSharedStringsDir,
		"paths.live_timesync_dir":       c.Paths.LiveTimesyncDir,
		"paths.state_dir":               c.Paths.StateDir,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", name)
		}
		if !filepath.IsAbs(value) {
			return fmt.Errorf("%s must be an absolute path, got %q", name, value)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path must be set when history is enabled")
	}
	return nil
}
