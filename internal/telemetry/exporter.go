package telemetry

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logExporter is a sdktrace.SpanExporter that writes completed spans
// through the daemon's own slog.Logger instead of shipping them to an OTLP
// collector — go.mod carries go.opentelemetry.io/otel's SDK but no
// exporter package, so this keeps tracing genuinely wired (real spans,
// real sampler, real batching) without inventing a network dependency
// SPEC_FULL.md never named.
type logExporter struct {
	log *slog.Logger
}

func newLogExporter(log *slog.Logger) *logExporter {
	return &logExporter{log: log}
}

func (e *logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := make([]any, 0, 8+len(s.Attributes())*2)
		attrs = append(attrs,
			"trace_id", s.SpanContext().TraceID().String(),
			"span_id", s.SpanContext().SpanID().String(),
			"duration_ms", s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status", s.Status().Code.String(),
		)
		for _, kv := range s.Attributes() {
			attrs = append(attrs, string(kv.Key), kv.Value.AsInterface())
		}
		e.log.Debug("telemetry: span "+s.Name(), attrs...)
	}
	return nil
}

func (e *logExporter) Shutdown(ctx context.Context) error { return nil }
