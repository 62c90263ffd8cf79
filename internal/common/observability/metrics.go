// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	updateCounter  otelmetric.Int64Counter
	updateDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	updateCounter, _ := meter.Int64Counter(
		"status.updates",
		otelmetric.WithDescription("Number of status updates processed"),
	)

	updateDuration, _ := meter.Float64Histogram(
		"status.update.duration",
		otelmetric.WithDescription("Status update pipeline duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		updateCounter:  updateCounter,
		updateDuration: updateDuration,
	}
}

func (o *Observability) RecordStatusUpdate(ctx context.Context, result string) {
	if o.updateCounter != nil {
		o.updateCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("result", result),
		))
	}
}

func (o *Observability) RecordUpdateDuration(ctx context.Context, duration time.Duration, result string) {
	if o.updateDuration != nil {
		o.updateDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("result", result),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
