package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd.
var (
	flagConfigPath string
	flagDataDir    string
	flagLogLevel   string
	flagLogFormat  string
)

// resolvedCfg is the daemon configuration loaded in PersistentPreRunE,
// mirroring the teacher's package-level resolvedCfg populated by
// loadConfig before every command runs.
var resolvedCfg *config.Config

// newRootCmd builds the sdcored root command. Unlike the teacher's CLI,
// sdcored has no subcommand tree to speak of: the root command itself is
// the daemon (bare invocation starts serving); `reload` and `version` are
// the only auxiliary commands, the former mirroring the teacher's
// sendSIGHUP-driven reload story from pause.go/signal.go.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sdcored",
		Short:   "Spacedrive core daemon",
		Long:    "sdcored owns libraries, jobs, sync, and P2P for one machine, and serves a local RPC socket that cmd/sd and other clients dial.",
		Version: version,
		// Silence Cobra's default error/usage printing — errors are
		// reported by exitOnError in main.go.
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadDaemonConfig()
		},
		RunE: runServe,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "daemon config file path")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "override the library data directory (SD_DATA_DIR takes precedence)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug|info|warn|error, overrides config")
	cmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "text|json, overrides config")

	cmd.AddCommand(newReloadCmd())

	return cmd
}

// loadDaemonConfig resolves flagConfigPath (or the XDG default) into
// resolvedCfg, applying --data-dir/--log-level/--log-format overrides the
// same way the teacher's loadConfig layers CLI flags over file config.
func loadDaemonConfig() error {
	path := flagConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagDataDir != "" {
		cfg.Data.Dir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Logging.Format = flagLogFormat
	}

	resolvedCfg = cfg
	return nil
}

// buildLogger constructs the daemon's *slog.Logger from resolved config,
// text or JSON per cfg.Logging.Format.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// backgroundContext is split out from context.Background() only so tests
// can swap it; production always uses the real background context.
func backgroundContext() context.Context { return context.Background() }
