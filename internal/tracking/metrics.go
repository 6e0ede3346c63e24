// Package tracking records OpenTelemetry metrics for ASTROX API calls.
package tracking

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "go-astrox/httpclient"

	MetricRequestDuration = "astrox.client.request.duration" // Histogram in seconds, one per logical request
	MetricAttempts        = "astrox.client.attempts"         // Counter, one per HTTP attempt
	MetricRetries         = "astrox.client.retries"          // Counter, one per backoff sleep

	AttrEndpoint   = "astrox.endpoint"
	AttrOutcome    = "astrox.outcome"
	AttrErrorType  = "error.type"
	AttrStatusCode = "http.response.status_code"
)

// Attempt outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeRetryable = "retryable"
	OutcomeFatal     = "fatal"
)

var (
	meter         metric.Meter
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	requestDuration metric.Float64Histogram
	attemptCounter  metric.Int64Counter
	retryCounter    metric.Int64Counter
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize astrox metric %s: %v\n", metricName, err)
	}
}

func initMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if meter != nil {
		return
	}

	meter = otel.Meter(meterName)

	var err error
	requestDuration, err = meter.Float64Histogram(
		MetricRequestDuration,
		metric.WithDescription("Duration of ASTROX API requests including retries and backoff"),
		metric.WithUnit("s"),
	)
	logMetricError(MetricRequestDuration, err)

	attemptCounter, err = meter.Int64Counter(
		MetricAttempts,
		metric.WithDescription("Number of HTTP attempts made to the ASTROX API"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(MetricAttempts, err)

	retryCounter, err = meter.Int64Counter(
		MetricRetries,
		metric.WithDescription("Number of retries scheduled after a transient failure"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(MetricRetries, err)

	metricsInited = true
}

func ensureInitialized() {
	meterOnce.Do(initMeter)
}

// RecordAttempt counts one HTTP attempt. status is 0 when no response was received.
func RecordAttempt(ctx context.Context, endpoint, outcome string, status int, errorType string) {
	ensureInitialized()
	if attemptCounter == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrOutcome, outcome),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int(AttrStatusCode, status))
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String(AttrErrorType, errorType))
	}
	attemptCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRetry counts one scheduled retry.
func RecordRetry(ctx context.Context, endpoint, errorType string) {
	ensureInitialized()
	if retryCounter == nil {
		return
	}
	retryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrErrorType, errorType),
	))
}

// RecordRequest records the total duration of one logical request.
// errorType is empty when the request succeeded.
func RecordRequest(ctx context.Context, endpoint string, duration time.Duration, errorType string) {
	ensureInitialized()
	if requestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String(AttrEndpoint, endpoint)}
	if errorType != "" {
		attrs = append(attrs, attribute.String(AttrErrorType, errorType))
	}
	requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IsInitialized reports whether the instruments were created.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting drops the instruments so the next call binds to the current global
// MeterProvider.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	meter = nil
	requestDuration = nil
	attemptCounter = nil
	retryCounter = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
