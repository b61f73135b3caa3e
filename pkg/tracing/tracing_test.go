package tracing

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/reactive/pkg/reactive"
)

func newTracedRuntime(t *testing.T, opts ...Option) (*reactive.Runtime, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	obs := New(append([]Option{WithTracerProvider(tp)}, opts...)...)
	rt := reactive.NewRuntime(
		reactive.WithObserver(obs),
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return rt, rec
}

func attr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestFlushSpan(t *testing.T) {
	rt, rec := newTracedRuntime(t, WithAttributes(attribute.String("app", "test")))
	s := reactive.CreateSignal(rt, 0)
	m := reactive.CreateMemo(rt, func() int { return reactive.Get[int](rt, s) + 1 })
	rt.CreateEffect(func() { _ = reactive.Get[int](rt, m) })

	if n := len(rec.Ended()); n != 0 {
		t.Fatalf("spans before any flush = %d", n)
	}

	reactive.Set(rt, s, 1)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "reactive.flush" {
		t.Errorf("name = %q", span.Name())
	}
	if v, ok := attr(span.Attributes(), "reactive.runs"); !ok || v.AsInt64() != 2 {
		t.Errorf("reactive.runs = %v", v)
	}
	if v, ok := attr(span.Attributes(), "reactive.pending"); !ok || v.AsInt64() != 1 {
		t.Errorf("reactive.pending = %v", v)
	}
	if v, _ := attr(span.Attributes(), "app"); v.AsString() != "test" {
		t.Errorf("app = %v", v)
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("status = %v", span.Status())
	}

	events := span.Events()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if v, _ := attr(events[0].Attributes, "reactive.kind"); v.AsString() != "memo" {
		t.Errorf("first run kind = %v, want memo", v)
	}
	if v, _ := attr(events[1].Attributes, "reactive.kind"); v.AsString() != "effect" {
		t.Errorf("second run kind = %v, want effect", v)
	}
}

func TestFlushSpanWithoutEvents(t *testing.T) {
	rt, rec := newTracedRuntime(t, WithRecordComputations(false), WithTracerName("custom"))
	s := reactive.CreateSignal(rt, 0)
	rt.CreateEffect(func() { _ = reactive.Get[int](rt, s) })
	reactive.Set(rt, s, 1)

	spans := rec.Ended()
	if len(spans) != 1 || len(spans[0].Events()) != 0 {
		t.Fatalf("unexpected spans %v", spans)
	}
	if got := spans[0].InstrumentationScope().Name; got != "custom" {
		t.Errorf("tracer name = %q", got)
	}
}

func TestAbortedFlushSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	obs := New(WithTracerProvider(tp))
	obs.FlushStarted(3)
	obs.FlushFinished(reactive.FlushStats{Runs: 3, Aborted: true})
	obs.FlushFinished(reactive.FlushStats{})

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want error", spans[0].Status())
	}
	if len(spans[0].Events()) != 1 || spans[0].Events()[0].Name != "exception" {
		t.Errorf("error not recorded: %v", spans[0].Events())
	}
}
