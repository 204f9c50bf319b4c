package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records job and decision measurements through an otel meter
// exported on the default prometheus registry. A zero value is usable and
// records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	decisions     otelmetric.Int64Counter
	eligibleShare otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)
	o := &Observability{meterProvider: provider, meter: meter}

	if o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		return o, err
	}

	if o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return o, err
	}

	if o.decisions, err = meter.Int64Counter(
		"eligibility.decisions",
		otelmetric.WithDescription("Eligibility decisions by outcome"),
	); err != nil {
		return o, err
	}

	if o.eligibleShare, err = meter.Float64Histogram(
		"eligibility.eligible_share",
		otelmetric.WithDescription("Share of lenders approving or conditionally approving an application"),
	); err != nil {
		return o, err
	}

	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

// RecordDecision counts one decision and the fraction of lenders that found
// the application eligible.
func (o *Observability) RecordDecision(ctx context.Context, decision, riskGrade string, eligible, total int) {
	if o == nil || o.decisions == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("decision", decision),
		attribute.String("risk_grade", riskGrade),
	)
	o.decisions.Add(ctx, 1, attrs)
	if total > 0 && o.eligibleShare != nil {
		o.eligibleShare.Record(ctx, float64(eligible)/float64(total), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
