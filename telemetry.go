package phrasebook

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ZaguanLabs/phrasebook"

// telemetry holds the spans and instruments recorded by a Translator.
type telemetry struct {
	tracer       trace.Tracer
	lookups      metric.Int64Counter
	remoteCalls  metric.Int64Counter
	failures     metric.Int64Counter
	callDuration metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	tel, err := buildTelemetry(tp, mp.Meter(instrumentationName))
	if err != nil {
		// Instrument registration only fails on invalid names; fall back to no-ops.
		tel, _ = buildTelemetry(tp, metricnoop.NewMeterProvider().Meter(instrumentationName))
	}
	return tel
}

func buildTelemetry(tp trace.TracerProvider, meter metric.Meter) (*telemetry, error) {
	lookups, err := meter.Int64Counter(
		"phrasebook.cache.lookups",
		metric.WithDescription("Phrase cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	remoteCalls, err := meter.Int64Counter(
		"phrasebook.provider.calls",
		metric.WithDescription("Outbound translation provider requests"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"phrasebook.translate.errors",
		metric.WithDescription("Failed translations by error kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	callDuration, err := meter.Float64Histogram(
		"phrasebook.provider.duration_ms",
		metric.WithDescription("Provider request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &telemetry{
		tracer:       tp.Tracer(instrumentationName),
		lookups:      lookups,
		remoteCalls:  remoteCalls,
		failures:     failures,
		callDuration: callDuration,
	}, nil
}

func (m *telemetry) startTranslate(ctx context.Context, phrase, sourceLang, targetLang string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "phrasebook.translate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("phrase.length", len(phrase)),
			attribute.String("lang.source", sourceLang),
			attribute.String("lang.target", targetLang),
		),
	)
}

func (m *telemetry) recordLookup(ctx context.Context, span trace.Span, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *telemetry) recordCall(ctx context.Context, provider string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	m.remoteCalls.Add(ctx, 1, attrs)
	m.callDuration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}

func (m *telemetry) recordFailure(ctx context.Context, span trace.Span, err error) {
	kind := Kind(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))
	span.SetAttributes(attribute.String("error.kind", string(kind)))
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}
