package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// noopProvider is returned when telemetry is disabled. It leaves the otel globals alone.
type noopProvider struct{}

func (noopProvider) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopProvider) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }
func (noopProvider) Shutdown(context.Context) error       { return nil }
func (noopProvider) ForceFlush(context.Context) error     { return nil }
