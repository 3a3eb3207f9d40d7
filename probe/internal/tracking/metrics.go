// Package tracking records probe metrics through OpenTelemetry.
package tracking

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "go-bricks-probe/probe"

	metricAttempts        = "probe.attempts"         // Counter
	metricAttemptDuration = "probe.attempt.duration" // Histogram in seconds
	metricRuns            = "probe.runs"             // Counter

	attrOutcome = "probe.outcome"
	attrResult  = "probe.result"
)

// Attempt outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeTransport = "transport_error"
)

// Metrics holds the probe instruments. The zero value is not usable; use New.
type Metrics struct {
	attempts        metric.Int64Counter
	attemptDuration metric.Float64Histogram
	runs            metric.Int64Counter
}

func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize probe metric %s: %v\n", name, err)
	}
}

// New creates instruments from mp, or from the global provider when mp is nil.
// Instrument creation errors are reported to stderr and never fail the probe.
func New(mp metric.MeterProvider) *Metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	m := &Metrics{}
	var err error

	m.attempts, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of probe attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	m.attemptDuration, err = meter.Float64Histogram(
		metricAttemptDuration,
		metric.WithDescription("Duration of single probe attempts"),
		metric.WithUnit("s"),
	)
	logMetricError(metricAttemptDuration, err)

	m.runs, err = meter.Int64Counter(
		metricRuns,
		metric.WithDescription("Number of completed probe runs by result"),
		metric.WithUnit("{run}"),
	)
	logMetricError(metricRuns, err)

	return m
}

// RecordAttempt records one attempt and its duration.
func (m *Metrics) RecordAttempt(ctx context.Context, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	if m.attempts != nil {
		m.attempts.Add(ctx, 1, attrs)
	}
	if m.attemptDuration != nil {
		m.attemptDuration.Record(ctx, d.Seconds(), attrs)
	}
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, result string) {
	if m.runs != nil {
		m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
	}
}
