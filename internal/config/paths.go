package config

import (
	"os"
	"path/filepath"

	"github.com/OpenPeeDeeP/xdg"
)

// appName is the directory name used under the platform's base dirs.
const appName = "sdcore"

// configFileName is the daemon config file name within DefaultConfigDir.
const configFileName = "sdcored.toml"

// xdgApp is constructed once; OpenPeeDeeP/xdg resolves XDG_CONFIG_HOME,
// XDG_DATA_HOME, XDG_CACHE_HOME (and their platform equivalents on macOS
// and Windows) so the daemon doesn't hand-roll per-OS path branching the
// way the teacher's paths.go did.
var xdgApp = xdg.New("spacedrive", appName)

// DefaultConfigDir returns the platform-specific directory for the daemon's
// own TOML config file.
func DefaultConfigDir() string {
	return xdgApp.ConfigHome()
}

// DefaultConfigPath returns the full path to the default daemon config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, configFileName)
}

// EnvDataDir is the environment variable from spec §6 that overrides the
// directory holding libraries.
const EnvDataDir = "SD_DATA_DIR"

// EnvCLIYes is the environment variable from spec §6 that auto-confirms
// destructive CLI actions in non-interactive sessions.
const EnvCLIYes = "SD_CLI_YES"

// DataDir resolves the root directory under which libraries are stored:
// SD_DATA_DIR env var, then the Config's Data.Dir, then the XDG data
// default.
func DataDir(cfg *Config) string {
	if d := os.Getenv(EnvDataDir); d != "" {
		return d
	}
	if cfg != nil && cfg.Data.Dir != "" {
		return cfg.Data.Dir
	}
	return xdgApp.DataHome()
}

// CLIYesFromEnv reports whether SD_CLI_YES=1 is set.
func CLIYesFromEnv() bool {
	return os.Getenv(EnvCLIYes) == "1"
}

// SocketPath resolves the Unix domain socket the daemon's RPC listener
// binds and the CLI dials, honoring cfg.Network.SocketPath before falling
// back to a path under the XDG cache directory (runtime sockets have no
// dedicated XDG base dir on every platform xdg supports, so cache is the
// closest "ephemeral, per-machine" fit).
func SocketPath(cfg *Config) string {
	if cfg != nil && cfg.Network.SocketPath != "" {
		return cfg.Network.SocketPath
	}
	return filepath.Join(xdgApp.CacheHome(), "sdcored.sock")
}

// PIDFilePath returns the path to the daemon's PID file, alongside its
// socket, used to detect an already-running daemon and to deliver SIGHUP
// for config reload.
func PIDFilePath(cfg *Config) string {
	if cfg != nil && cfg.Network.SocketPath != "" {
		return filepath.Join(filepath.Dir(cfg.Network.SocketPath), "sdcored.pid")
	}
	return filepath.Join(xdgApp.CacheHome(), "sdcored.pid")
}
