package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	ResetForTesting()

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		otel.SetMeterProvider(previous)
		ResetForTesting()
	})
	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordAttempt(t *testing.T) {
	reader := setupMeterProvider(t)
	ctx := context.Background()

	RecordAttempt(ctx, "/Propagator/TwoBody", OutcomeRetryable, 503, "http")
	RecordAttempt(ctx, "/Propagator/TwoBody", OutcomeSuccess, 200, "")

	metrics := collect(t, reader)
	m, ok := metrics[MetricAttempts]
	require.True(t, ok, "attempt counter not exported")

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
		endpoint, _ := dp.Attributes.Value(attribute.Key(AttrEndpoint))
		assert.Equal(t, "/Propagator/TwoBody", endpoint.AsString())
	}
	assert.Equal(t, int64(2), total)
	assert.True(t, IsInitialized())
}

func TestRecordRetry(t *testing.T) {
	reader := setupMeterProvider(t)

	RecordRetry(context.Background(), "/Coverage/ComputeCoverage", "timeout")
	RecordRetry(context.Background(), "/Coverage/ComputeCoverage", "timeout")

	m := collect(t, reader)[MetricRetries]
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func TestRecordRequest(t *testing.T) {
	reader := setupMeterProvider(t)

	RecordRequest(context.Background(), "/Access/Compute", 1500*time.Millisecond, "")

	m := collect(t, reader)[MetricRequestDuration]
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 1e-9)
	assert.Equal(t, "s", m.Unit)
}

func TestResetForTesting(t *testing.T) {
	setupMeterProvider(t)
	RecordRetry(context.Background(), "/x", "connection")
	require.True(t, IsInitialized())

	ResetForTesting()
	assert.False(t, IsInitialized())
}
