// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for the sdcored daemon process. This is
// distinct from a Library's own config.json (internal/catalog owns that);
// this package configures the daemon itself — where it keeps its data,
// how big its worker pool is, default index mode for new locations, and so
// on.
package config

import "time"

// Config is the top-level daemon configuration structure, decoded from TOML.
type Config struct {
	Data        DataConfig        `toml:"data"`
	Jobs        JobsConfig        `toml:"jobs"`
	Indexer     IndexerConfig     `toml:"indexer"`
	Sync        SyncConfig        `toml:"sync"`
	Network     NetworkConfig     `toml:"network"`
	Logging     LoggingConfig     `toml:"logging"`
	Safety      SafetyConfig      `toml:"safety"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

// DataConfig controls where the daemon keeps per-library state.
type DataConfig struct {
	// Dir overrides the default data directory (SD_DATA_DIR env var takes
	// precedence over this, which takes precedence over the XDG default).
	Dir string `toml:"dir"`
}

// JobsConfig controls the task system's worker pool (spec §4.3/§5).
type JobsConfig struct {
	Workers          int    `toml:"workers"`           // 0 = runtime.NumCPU()
	ShutdownGrace    string `toml:"shutdown_grace"`    // default 5s
	SoftDeadline     string `toml:"soft_deadline"`     // default 30m
	ProgressInterval string `toml:"progress_interval"` // default 250ms
	RetryMaxAttempts int    `toml:"retry_max_attempts"`
	RetryBaseBackoff string `toml:"retry_base_backoff"` // default 50ms
	RetryMaxBackoff  string `toml:"retry_max_backoff"`  // default 500ms
}

// IndexerConfig controls default indexing behavior for newly added locations.
type IndexerConfig struct {
	DefaultMode      string `toml:"default_mode"`       // shallow|content|deep
	WatcherBatchMs   int    `toml:"watcher_batch_ms"`   // default 500
	RenamePairWindow string `toml:"rename_pair_window"` // default 200ms
}

// SyncConfig controls the sync engine's batching and retention (spec §4.6).
type SyncConfig struct {
	PullBatchSize    int    `toml:"pull_batch_size"`    // default 500
	RetentionHorizon string `toml:"retention_horizon"`  // default 720h (30d)
	EventBusCapacity int    `toml:"event_bus_capacity"` // default 1024
}

// NetworkConfig controls the P2P transport and the local daemon RPC socket.
type NetworkConfig struct {
	IdleTimeout string `toml:"idle_timeout"` // default 5m
	// SocketPath overrides the default Unix domain socket the daemon's RPC
	// listener binds (spec §6's "local IPC socket"). Empty uses the XDG
	// runtime-directory default.
	SocketPath string `toml:"socket_path"`
}

// MetricsConfig controls the internal/metrics Prometheus registry and its
// HTTP exposition endpoint.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"` // default 127.0.0.1:9090
}

// TelemetryConfig controls internal/telemetry's OpenTelemetry tracer and
// Pyroscope continuous profiler.
type TelemetryConfig struct {
	Enabled      bool     `toml:"enabled"`
	ServiceName  string   `toml:"service_name"`
	Endpoint     string   `toml:"endpoint"`    // pyroscope server address
	SampleRate   float64  `toml:"sample_rate"` // trace sampling ratio, 0..1
	ProfilingOn  bool     `toml:"profiling_enabled"`
	ProfileTypes []string `toml:"profile_types"`
}

// MaintenanceConfig controls the library's recurring background jobs: the
// ContentIdentity GC sweep (spec §3's "a GC sweep removes unreferenced
// ones after a grace period") and the volume read/write speed test that
// feeds the job system's resource-affinity soft caps (spec §4.3).
type MaintenanceConfig struct {
	GCInterval        string `toml:"gc_interval"`         // default 1h
	GCGracePeriod     string `toml:"gc_grace_period"`     // default 24h
	SpeedTestInterval string `toml:"speed_test_interval"` // default 24h
}

// LoggingConfig controls daemon log output.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug|info|warn|error
	Format string `toml:"format"` // text|json
}

// SafetyConfig mirrors spec §7's destructive-action confirmation policy.
type SafetyConfig struct {
	RequireConfirmation bool `toml:"require_confirmation"`
}

// Duration parses a config string duration field, falling back to def on
// empty input or parse failure — every *Config duration-like string field
// goes through this rather than failing config load over a typo.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
