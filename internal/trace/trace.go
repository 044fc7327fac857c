// Package trace owns the process tracer. Spans are exported to stdout or stderr
// and carry the bot's mode, venue and symbol as resource attributes.
package trace

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "lorentzian-trading-bot"

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	enabled        bool
)

type Config struct {
	Enabled     bool   `yaml:"enabled"`
	PrettyPrint bool   `yaml:"pretty_print"`
	Version     string `yaml:"version"`
	// Output is stdout or stderr.
	Output string `yaml:"output"`
	// SampleRatio is the share of root spans kept; 0 keeps all.
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Deployment describes the running bot for the span resource.
type Deployment struct {
	Mode   string
	Venue  string
	Symbol string
}

// Init installs the span exporter. LOG_TRACING_ENABLED overrides cfg.Enabled.
func Init(cfg Config, d Deployment) error {
	enabled = cfg.Enabled
	if v := os.Getenv("LOG_TRACING_ENABLED"); v != "" {
		enabled = v == "true"
	}
	if !enabled {
		return nil
	}

	w, err := output(cfg.Output)
	if err != nil {
		enabled = false
		return err
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		enabled = false
		return err
	}

	if err := install(sdktrace.NewBatchSpanProcessor(exporter), cfg, d); err != nil {
		enabled = false
		return err
	}
	return nil
}

func output(name string) (io.Writer, error) {
	switch strings.ToLower(name) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	return nil, fmt.Errorf("unknown tracing output %q", name)
}

func install(sp sdktrace.SpanProcessor, cfg Config, d Deployment) error {
	res, err := resource.New(context.Background(), resource.WithAttributes(deploymentAttributes(cfg, d)...))
	if err != nil {
		return err
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = tracerProvider.Tracer(serviceName)
	enabled = true
	return nil
}

func deploymentAttributes(cfg Config, d Deployment) []attribute.KeyValue {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	}
	if d.Mode != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(strings.ToLower(d.Mode)))
	}
	if d.Venue != "" {
		attrs = append(attrs, attribute.String("bot.venue", d.Venue))
	}
	if d.Symbol != "" {
		attrs = append(attrs, attribute.String("bot.symbol", d.Symbol))
	}
	return attrs
}

func Shutdown(ctx context.Context) error {
	if tracerProvider != nil {
		return tracerProvider.Shutdown(ctx)
	}
	return nil
}

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, opts...)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func Enabled() bool {
	return enabled
}

func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}
