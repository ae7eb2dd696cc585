package config

const (
	defaultConfigPath           = "~/.config/batterylog/config.toml"
	projectConfigName           = "batterylog.toml"
	defaultLiveTraceRoot        = "/private/var/db/diagnostics"
	defaultLiveStringsDir       = "/private/var/db/uuidtext"
	defaultLiveSharedStringsDir = "/private/var/db/uuidtext/dsc"
	defaultLiveTimesyncDir      = "/private/var/db/diagnostics/timesync"
	defaultStateDir             = "~/.local/share/batterylog"
	defaultHistoryFile          = "history.db"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"

	// EnvStateDir overrides paths.state_dir.
	EnvStateDir = "BATTERYLOG_STATE_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LiveTraceRoot:        defaultLiveTraceRoot,
			LiveStringsDir:       defaultLiveStringsDir,
			LiveSharedStringsDir: defaultLiveSharedStringsDir,
			LiveTimesyncDir:      defaultLiveTimesyncDir,
			StateDir:             defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
		},
	}
}
