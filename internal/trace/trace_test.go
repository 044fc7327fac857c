package trace

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T, d Deployment) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	if err := install(sdktrace.NewSimpleSpanProcessor(exp), Config{Version: "test"}, d); err != nil {
		t.Fatalf("install: %v", err)
	}
	t.Cleanup(func() {
		_ = Shutdown(context.Background())
		tracer, tracerProvider, enabled = nil, nil, false
	})
	return exp
}

func TestSpansCarryDeployment(t *testing.T) {
	exp := newRecorder(t, Deployment{Mode: "DRY_RUN", Venue: "binance", Symbol: "BTCUSDT"})

	_, span := StartSpan(context.Background(), "venue.FetchTicker")
	End(span, nil)

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	want := map[attribute.Key]string{
		"deployment.environment": "dry_run",
		"bot.venue":              "binance",
		"bot.symbol":             "BTCUSDT",
		"service.version":        "test",
	}
	got := map[attribute.Key]string{}
	for _, kv := range spans[0].Resource.Attributes() {
		got[kv.Key] = kv.Value.Emit()
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Expected %s=%q, got %q", k, v, got[k])
		}
	}
	if spans[0].Status.Code == codes.Error {
		t.Errorf("Expected no error status, got %+v", spans[0].Status)
	}
}

func TestEndRecordsError(t *testing.T) {
	exp := newRecorder(t, Deployment{})

	_, span := StartSpan(context.Background(), "venue.CreateOrders")
	End(span, errors.New("batch rejected"))

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error || spans[0].Status.Description != "batch rejected" {
		t.Errorf("Expected error status, got %+v", spans[0].Status)
	}
	if len(spans[0].Events) == 0 || spans[0].Events[0].Name != "exception" {
		t.Errorf("Expected recorded exception event, got %+v", spans[0].Events)
	}
}

func TestTraceFields(t *testing.T) {
	newRecorder(t, Deployment{})

	if _, _, ok := GetTraceFields(context.Background()); ok {
		t.Error("Expected no trace fields without a span")
	}
	ctx, span := StartSpan(context.Background(), "engine.Step")
	defer span.End()
	traceID, spanID, ok := GetTraceFields(ctx)
	if !ok || traceID == "" || spanID == "" {
		t.Errorf("Expected trace fields, got %q %q %v", traceID, spanID, ok)
	}
}

func TestDisabledStartSpanIsNoop(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "false")
	if err := Init(Config{Enabled: true}, Deployment{}); err != nil {
		t.Fatal(err)
	}
	if Enabled() {
		t.Fatal("Expected env override to disable tracing")
	}
	ctx, span := StartSpan(context.Background(), "noop")
	End(span, errors.New("ignored"))
	if _, _, ok := GetTraceFields(ctx); ok {
		t.Error("Expected no trace fields when disabled")
	}
}

func TestUnknownOutput(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "")
	if err := Init(Config{Enabled: true, Output: "syslog"}, Deployment{}); err == nil {
		t.Fatal("Expected error for unknown output")
	}
	if Enabled() {
		t.Error("Expected tracing disabled after failed init")
	}
}
