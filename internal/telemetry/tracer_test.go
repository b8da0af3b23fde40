package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledConfigYieldsWorkingNoOpTracer(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.False(t, IsEnabled())

	ctx, span := StartSpan(context.Background(), "test.span")
	AddEvent(ctx, "did a thing")
	RecordError(ctx, nil)
	span.End()
}

func TestDisabledProfilingIsANoOp(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}

func TestParseProfileTypeRejectsUnknown(t *testing.T) {
	_, err := parseProfileType("not-a-real-type")
	assert.Error(t, err)
}
