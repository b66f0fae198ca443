// Package telemetry wires tracing, metrics and logging for the document
// factory.
package telemetry

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName scopes the tracer and meter.
const InstrumentationName = "github.com/jacoelho/xmlfactory"

const (
	MetricFactoryConstructions = "xmlfactory.factory.constructions"
	MetricBuilderDerivations   = "xmlfactory.builder.derivations"
	MetricBuilderReuses        = "xmlfactory.builder.reuses"
	MetricParseFailures        = "xmlfactory.parse.failures"
)

// Telemetry bundles the instruments used by the factory provider, builder
// cache and parse helpers. A nil *Telemetry is valid and records nothing.
type Telemetry struct {
	log    logrus.FieldLogger
	tracer trace.Tracer

	constructions metric.Int64Counter
	derivations   metric.Int64Counter
	reuses        metric.Int64Counter
	parseFailures metric.Int64Counter
}

// Config selects the providers. Nil fields fall back to the otel globals and
// the logrus standard logger.
type Config struct {
	Logger         logrus.FieldLogger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// New builds the instruments. When a counter cannot be registered the noop
// meter is used instead so recording never fails.
func New(cfg Config) *Telemetry {
	t := &Telemetry{log: cfg.Logger}
	if t.log == nil {
		t.log = logrus.StandardLogger().WithField("component", "xmlfactory")
	}

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	t.tracer = tp.Tracer(InstrumentationName)

	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if err := t.register(mp.Meter(InstrumentationName)); err != nil {
		t.log.WithError(err).Warn("metric registration failed, metrics disabled")
		_ = t.register(metricnoop.NewMeterProvider().Meter(InstrumentationName))
	}
	return t
}

func (t *Telemetry) register(meter metric.Meter) error {
	var err error
	if t.constructions, err = meter.Int64Counter(MetricFactoryConstructions,
		metric.WithDescription("Parser factory constructions")); err != nil {
		return err
	}
	if t.derivations, err = meter.Int64Counter(MetricBuilderDerivations,
		metric.WithDescription("Document builders derived from the factory")); err != nil {
		return err
	}
	if t.reuses, err = meter.Int64Counter(MetricBuilderReuses,
		metric.WithDescription("Cached document builders handed out again")); err != nil {
		return err
	}
	if t.parseFailures, err = meter.Int64Counter(MetricParseFailures,
		metric.WithDescription("Documents rejected by the parser")); err != nil {
		return err
	}
	return nil
}

// Logger returns the field logger, never nil.
func (t *Telemetry) Logger() logrus.FieldLogger {
	if t == nil || t.log == nil {
		return logrus.StandardLogger()
	}
	return t.log
}

// StartSpan starts a span and returns the function that ends it.
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if t == nil || t.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}

func (t *Telemetry) FactoryConstructed(ctx context.Context, provider string, err error) {
	if t == nil || t.constructions == nil {
		return
	}
	t.constructions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("success", err == nil),
	))
}

func (t *Telemetry) BuilderDerived(ctx context.Context) {
	if t == nil || t.derivations == nil {
		return
	}
	t.derivations.Add(ctx, 1)
}

func (t *Telemetry) BuilderReused(ctx context.Context) {
	if t == nil || t.reuses == nil {
		return
	}
	t.reuses.Add(ctx, 1)
}

func (t *Telemetry) ParseFailed(ctx context.Context, reason string) {
	if t == nil || t.parseFailures == nil {
		return
	}
	t.parseFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
