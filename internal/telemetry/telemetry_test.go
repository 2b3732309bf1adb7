package telemetry

import (
	"context"
	"testing"

	"student-manager/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_Disabled(t *testing.T) {
	before := otel.GetMeterProvider()

	provider, err := Init(context.Background(), false, "localhost:4317", "student-manager", "test", logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, provider)
	assert.Equal(t, before, otel.GetMeterProvider())
}

func TestShutdown_NilProvider(t *testing.T) {
	assert.NoError(t, Shutdown(context.Background(), nil, logger.Discard()))
}

func TestInit_Enabled(t *testing.T) {
	before := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(before) })

	provider, err := Init(context.Background(), true, "localhost:4317", "student-manager", "test", logger.Discard())
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.Same(t, provider, otel.GetMeterProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing listens on the endpoint; only the provider teardown matters here.
	_ = Shutdown(ctx, provider, logger.Discard())
}
