package config

import (
	"fmt"
	"time"
)

var validIndexModes = map[string]bool{"shallow": true, "content": true, "deep": true}

// Validate checks a loaded Config for internally-consistent values,
// mirroring the teacher's validate.go: every check produces a plain error
// naming the offending field, aggregated rather than stopping at the first.
func Validate(cfg *Config) error {
	var problems []string

	if !validIndexModes[cfg.Indexer.DefaultMode] {
		problems = append(problems, fmt.Sprintf("indexer.default_mode: must be one of shallow|content|deep, got %q", cfg.Indexer.DefaultMode))
	}

	if cfg.Jobs.Workers < 0 {
		problems = append(problems, "jobs.workers: must be >= 0")
	}

	if _, err := time.ParseDuration(orDefault(cfg.Jobs.ShutdownGrace, defaultShutdownGrace)); err != nil {
		problems = append(problems, "jobs.shutdown_grace: "+err.Error())
	}

	if _, err := time.ParseDuration(orDefault(cfg.Jobs.SoftDeadline, defaultSoftDeadline)); err != nil {
		problems = append(problems, "jobs.soft_deadline: "+err.Error())
	}

	if cfg.Jobs.RetryMaxAttempts < 1 {
		problems = append(problems, "jobs.retry_max_attempts: must be >= 1")
	}

	if cfg.Sync.PullBatchSize < 1 {
		problems = append(problems, "sync.pull_batch_size: must be >= 1")
	}

	if cfg.Sync.EventBusCapacity < 1 {
		problems = append(problems, "sync.event_bus_capacity: must be >= 1")
	}

	if cfg.Telemetry.SampleRate < 0 || cfg.Telemetry.SampleRate > 1 {
		problems = append(problems, "telemetry.sample_rate: must be between 0 and 1")
	}

	if _, err := time.ParseDuration(orDefault(cfg.Maintenance.GCInterval, defaultGCInterval)); err != nil {
		problems = append(problems, "maintenance.gc_interval: "+err.Error())
	}

	if _, err := time.ParseDuration(orDefault(cfg.Maintenance.GCGracePeriod, defaultGCGracePeriod)); err != nil {
		problems = append(problems, "maintenance.gc_grace_period: "+err.Error())
	}

	if _, err := time.ParseDuration(orDefault(cfg.Maintenance.SpeedTestInterval, defaultSpeedTestInterval)); err != nil {
		problems = append(problems, "maintenance.speed_test_interval: "+err.Error())
	}

	if len(problems) == 0 {
		return nil
	}

	msg := "invalid configuration:"
	for _, p := range problems {
		msg += "\n  - " + p
	}
	return fmt.Errorf("%s", msg)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
