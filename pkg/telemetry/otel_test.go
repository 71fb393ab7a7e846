package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/encodingman/encodingman/pkg/config"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestFromConfig(t *testing.T) {
	got := FromConfig(config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "collector:4317",
		ServiceName: "enc",
		SampleRate:  0.25,
		Insecure:    false,
	})
	assert.Equal(t, "collector:4317", got.Endpoint)
	assert.Equal(t, "enc", got.ServiceName)
	assert.Equal(t, 0.25, got.SamplingRatio)
	assert.False(t, got.InsecureTLS)

	def := FromConfig(config.TelemetryConfig{})
	assert.Equal(t, "localhost:4317", def.Endpoint)
	assert.Equal(t, "encodingman", def.ServiceName)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", Sampler(1).Description())
	assert.Equal(t, "AlwaysOffSampler", Sampler(0).Description())
	assert.Contains(t, Sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestNewResource(t *testing.T) {
	res, err := newResource("enc", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, resource.Default().SchemaURL(), res.SchemaURL())

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "enc", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
}

func TestExporter_InitIsIdempotent(t *testing.T) {
	// the gRPC client connects lazily, so no collector is needed
	e := NewOTLPExporter(DefaultOTLPConfig("test"))
	shutdown, err := e.Init(context.Background())
	require.NoError(t, err)
	assert.True(t, e.IsInitialized())
	assert.NotNil(t, e.TracerProvider())

	again, err := e.Init(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, again)

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	_ = shutdown(ctx)
	assert.False(t, e.IsInitialized())
	assert.NoError(t, shutdown(context.Background()))
}
