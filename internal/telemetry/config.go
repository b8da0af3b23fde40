package telemetry

// Config controls OpenTelemetry span emission for one daemon process,
// grounded on dittofs's internal/telemetry.Config. Unlike dittofs — which
// ships an OTLP gRPC exporter — spacedrive's go.mod carries only
// go.opentelemetry.io/otel's SDK, no exporter package, so spans are
// recorded in-process and written through the same slog.Logger the rest
// of the daemon logs through (see logExporter in tracer.go) rather than
// shipped to a collector. Endpoint is kept for SPEC_FULL.md's wiring note
// and a future exporter swap, but is unused by logExporter.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	SampleRate     float64
}

// DefaultConfig returns spec §6's "telemetry off by default" posture with
// every-trace sampling once enabled.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "sdcored",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}

// ProfilingConfig controls Pyroscope continuous profiling, grounded on
// dittofs's internal/telemetry.ProfilingConfig.
type ProfilingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	ProfileTypes   []string
}

// DefaultProfilingConfig returns profiling off with a CPU-only profile set,
// the minimal useful set if a caller flips Enabled on without naming types.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:        false,
		ServiceName:    "sdcored",
		ServiceVersion: "dev",
		Endpoint:       "http://localhost:4040",
		ProfileTypes:   []string{"cpu"},
	}
}
