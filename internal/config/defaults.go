package config

// Default values for configuration options, applied as the fallback layer
// before any TOML file is read, matching the teacher's defaults.go pattern.
const (
	defaultWorkers          = 0 // 0 means runtime.NumCPU()
	defaultShutdownGrace    = "5s"
	defaultSoftDeadline     = "30m"
	defaultProgressInterval = "250ms"
	defaultRetryMaxAttempts = 3
	defaultRetryBaseBackoff = "50ms"
	defaultRetryMaxBackoff  = "500ms"

	defaultIndexMode        = "content"
	defaultWatcherBatchMs   = 500
	defaultRenamePairWindow = "200ms"

	defaultPullBatchSize    = 500
	defaultRetentionHorizon = "720h"
	defaultEventBusCap      = 1024

	defaultIdleTimeout = "5m"

	defaultLogLevel  = "info"
	defaultLogFormat = "text"

	defaultMetricsListenAddr = "127.0.0.1:9090"

	defaultTelemetryServiceName = "sdcored"
	defaultTelemetrySampleRate  = 0.1

	defaultGCInterval        = "1h"
	defaultGCGracePeriod     = "24h"
	defaultSpeedTestInterval = "24h"
)

// DefaultConfig returns a Config populated with all default values. Used
// both as the decode target (so unset TOML fields keep their defaults) and
// as the result when no config file exists on disk.
func DefaultConfig() *Config {
	return &Config{
		Jobs: JobsConfig{
			Workers:          defaultWorkers,
			ShutdownGrace:    defaultShutdownGrace,
			SoftDeadline:     defaultSoftDeadline,
			ProgressInterval: defaultProgressInterval,
			RetryMaxAttempts: defaultRetryMaxAttempts,
			RetryBaseBackoff: defaultRetryBaseBackoff,
			RetryMaxBackoff:  defaultRetryMaxBackoff,
		},
		Indexer: IndexerConfig{
			DefaultMode:      defaultIndexMode,
			WatcherBatchMs:   defaultWatcherBatchMs,
			RenamePairWindow: defaultRenamePairWindow,
		},
		Sync: SyncConfig{
			PullBatchSize:    defaultPullBatchSize,
			RetentionHorizon: defaultRetentionHorizon,
			EventBusCapacity: defaultEventBusCap,
		},
		Network: NetworkConfig{
			IdleTimeout: defaultIdleTimeout,
		},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Safety: SafetyConfig{
			RequireConfirmation: true,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: defaultMetricsListenAddr,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: defaultTelemetryServiceName,
			SampleRate:  defaultTelemetrySampleRate,
		},
		Maintenance: MaintenanceConfig{
			GCInterval:        defaultGCInterval,
			GCGracePeriod:     defaultGCGracePeriod,
			SpeedTestInterval: defaultSpeedTestInterval,
		},
	}
}
