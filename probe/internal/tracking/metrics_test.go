package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordAttemptAndRun(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := New(mp)

	ctx := context.Background()
	m.RecordAttempt(ctx, OutcomeFailure, 10*time.Millisecond)
	m.RecordAttempt(ctx, OutcomeFailure, 20*time.Millisecond)
	m.RecordAttempt(ctx, OutcomeSuccess, 5*time.Millisecond)
	m.RecordRun(ctx, "succeeded")

	metrics := collect(t, reader)

	attempts, ok := metrics[metricAttempts].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := map[string]int64{}
	for _, dp := range attempts.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(attrOutcome))
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{OutcomeFailure: 2, OutcomeSuccess: 1}, byOutcome)

	hist, ok := metrics[metricAttemptDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)

	runs, ok := metrics[metricRuns].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, runs.DataPoints, 1)
	assert.Equal(t, int64(1), runs.DataPoints[0].Value)
}

func TestNewWithGlobalProvider(t *testing.T) {
	m := New(nil)
	assert.NotPanics(t, func() {
		m.RecordAttempt(context.Background(), OutcomeTransport, time.Millisecond)
		m.RecordRun(context.Background(), "aborted")
	})
}
