package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "nshttpd", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Shutdown of a disabled pipeline is a no-op
	err = shutdown(ctx)
	assert.NoError(t, err)

	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan works as a no-op
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	span.End()
}

func TestStartRequestSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartRequestSpan(ctx, "GET", "/index.html", "127.0.0.1:50000")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(HTTPStatus(200))
	span.End()
}

func TestRecordErrorNil(t *testing.T) {
	// Recording a nil error must not panic
	RecordError(context.Background(), nil)
	RecordError(context.Background(), errors.New("boom"))
}

func TestInitProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}

func TestParseProfileType(t *testing.T) {
	_, err := parseProfileType("cpu")
	assert.NoError(t, err)

	_, err = parseProfileType("bogus")
	assert.Error(t, err)
}
