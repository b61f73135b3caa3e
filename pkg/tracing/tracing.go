// Package tracing records reactive flushes as OpenTelemetry spans.
//
// Each flush becomes one span named "reactive.flush". Effect and memo runs
// inside the flush are added to it as span events, and a flush aborted by
// the flush budget ends with an error status.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// passed with WithTracerProvider:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	rt := reactive.NewRuntime(reactive.WithObserver(tracing.New()))
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// DefaultTracerName is the tracer name used unless WithTracerName is given.
const DefaultTracerName = "github.com/vango-dev/reactive"

// Config configures the tracing observer.
type Config struct {
	// TracerName is the name of the tracer.
	TracerName string

	// TracerProvider provides the tracer. Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Context is the parent of every flush span.
	Context context.Context

	// RecordComputations adds one span event per computation run.
	// Enabled by default.
	RecordComputations bool

	// Attributes are added to every flush span.
	Attributes []attribute.KeyValue
}

// Option configures the tracing observer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithContext sets the parent context of flush spans.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// WithRecordComputations enables or disables per-run span events.
func WithRecordComputations(record bool) Option {
	return func(c *Config) {
		c.RecordComputations = record
	}
}

// WithAttributes adds attributes to every flush span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *Config) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Observer implements reactive.Observer. It is bound to the goroutine of
// the runtime it observes, like the runtime itself.
type Observer struct {
	reactive.NopObserver

	config Config
	tracer trace.Tracer
	span   trace.Span
}

var _ reactive.Observer = (*Observer)(nil)

// New creates a tracing observer.
func New(opts ...Option) *Observer {
	config := Config{
		TracerName:         DefaultTracerName,
		Context:            context.Background(),
		RecordComputations: true,
	}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Observer{
		config: config,
		tracer: tp.Tracer(config.TracerName),
	}
}

// FlushStarted opens the flush span.
func (o *Observer) FlushStarted(pending int) {
	attrs := append([]attribute.KeyValue{
		attribute.Int("reactive.pending", pending),
	}, o.config.Attributes...)

	_, o.span = o.tracer.Start(o.config.Context, "reactive.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// ComputationRan adds a span event to the open flush span.
func (o *Observer) ComputationRan(id reactive.NodeID, kind reactive.NodeKind, elapsed time.Duration) {
	if o.span == nil || !o.config.RecordComputations {
		return
	}
	o.span.AddEvent("reactive.run", trace.WithAttributes(
		attribute.String("reactive.node", id.String()),
		attribute.String("reactive.kind", kind.String()),
		attribute.Int64("reactive.elapsed_ns", elapsed.Nanoseconds()),
	))
}

// FlushFinished ends the flush span.
func (o *Observer) FlushFinished(stats reactive.FlushStats) {
	span := o.span
	if span == nil {
		return
	}
	o.span = nil

	span.SetAttributes(
		attribute.Int("reactive.runs", stats.Runs),
		attribute.Int("reactive.skipped", stats.Skipped),
	)
	if stats.Aborted {
		span.RecordError(reactive.ErrFlushBudgetExceeded)
		span.SetStatus(codes.Error, "flush budget exceeded")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
