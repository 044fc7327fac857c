package logger

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lorentzian-trading-bot/internal/trace"
)

var (
	// base logger, caller skip already accounts for the helpers in this file
	base atomic.Pointer[zap.Logger]
	// whether caller and stack details are attached
	detailedLogging atomic.Bool
)

func init() {
	base.Store(zap.NewNop())
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level           string `yaml:"level"`  // DEBUG, INFO, WARN, ERROR
	Format          string `yaml:"format"` // json or console
	DetailedLogging bool   `yaml:"detailed"`
}

// Init initializes the global logger from environment variables
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

// LoadConfigFromEnv loads logging configuration from environment variables
func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
	}
}

// InitWithConfig initializes the global logger with a specific configuration.
// Environment variables override the file values when set.
func InitWithConfig(config LogConfig) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		config.Format = v
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLogLevel(config.Level)),
		Encoding:         "json",
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if strings.EqualFold(config.Format, "console") || strings.EqualFold(config.Format, "text") {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.DisableCaller = !config.DetailedLogging
	zcfg.DisableStacktrace = !config.DetailedLogging

	l, err := zcfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return err
	}
	Set(l)
	detailedLogging.Store(config.DetailedLogging)
	return nil
}

// Set replaces the global logger. Callers own syncing the previous one.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	base.Store(l)
}

// L returns the underlying zap logger without the helper caller skip.
func L() *zap.Logger {
	return base.Load().WithOptions(zap.AddCallerSkip(-2))
}

// Sync flushes buffered log entries
func Sync() {
	_ = base.Load().Sync()
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func withTrace(ctx context.Context, args []any) []any {
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		return append([]any{"trace_id", traceID, "span_id", spanID}, args...)
	}
	return args
}

func logAt(ctx context.Context, level zapcore.Level, skip int, msg string, args ...any) {
	l := base.Load()
	if skip > 0 {
		l = l.WithOptions(zap.AddCallerSkip(skip))
	}
	if !l.Core().Enabled(level) {
		return
	}
	s := l.Sugar()
	args = withTrace(ctx, args)
	switch level {
	case zapcore.DebugLevel:
		s.Debugw(msg, args...)
	case zapcore.InfoLevel:
		s.Infow(msg, args...)
	case zapcore.WarnLevel:
		s.Warnw(msg, args...)
	default:
		s.Errorw(msg, args...)
	}
}

func recordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := oteltrace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func Debug(ctx context.Context, msg string, args ...any) {
	logAt(ctx, zapcore.DebugLevel, 0, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	logAt(ctx, zapcore.InfoLevel, 0, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	logAt(ctx, zapcore.WarnLevel, 0, msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	logAt(ctx, zapcore.ErrorLevel, 0, msg, args...)
}

// ErrorWithErr logs an error message with an error object and marks the active span failed
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	recordError(ctx, err)
	logAt(ctx, zapcore.ErrorLevel, 0, msg, append([]any{"error", err}, args...)...)
}

// The *Skip variants are for decorators that want the caller of the wrapped
// method reported instead of themselves.

func DebugSkip(ctx context.Context, skip int, msg string, args ...any) {
	logAt(ctx, zapcore.DebugLevel, skip, msg, args...)
}

func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	logAt(ctx, zapcore.InfoLevel, skip, msg, args...)
}

func WarnSkip(ctx context.Context, skip int, msg string, args ...any) {
	logAt(ctx, zapcore.WarnLevel, skip, msg, args...)
}

func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	recordError(ctx, err)
	logAt(ctx, zapcore.ErrorLevel, skip, msg, append([]any{"error", err}, args...)...)
}

// OperationTimer measures an operation with a span
type OperationTimer struct {
	ctx    context.Context
	span   oteltrace.Span
	start  time.Time
	fields []any
}

// StartOperation starts timing an operation with an OpenTelemetry span
func StartOperation(ctx context.Context, operation string, fields ...any) *OperationTimer {
	ctx, span := trace.StartSpan(ctx, operation)
	span.SetAttributes(toAttributes(fields)...)
	if detailedLogging.Load() {
		logAt(ctx, zapcore.DebugLevel, 0, "Operation started", append([]any{"operation", operation}, fields...)...)
	}
	return &OperationTimer{ctx: ctx, span: span, start: time.Now(), fields: fields}
}

// End completes the operation timer
func (ot *OperationTimer) End(additionalFields ...any) {
	duration := time.Since(ot.start)
	ot.span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
	ot.span.SetAttributes(toAttributes(additionalFields)...)
	ot.span.SetStatus(codes.Ok, "completed")
	ot.span.End()

	if detailedLogging.Load() {
		fields := append(append([]any{}, ot.fields...), "duration_ms", duration.Milliseconds())
		logAt(ot.ctx, zapcore.DebugLevel, 0, "Operation completed", append(fields, additionalFields...)...)
	}
}

// EndWithError completes the operation timer with an error
func (ot *OperationTimer) EndWithError(err error, additionalFields ...any) {
	duration := time.Since(ot.start)
	ot.span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
	ot.span.RecordError(err)
	ot.span.SetStatus(codes.Error, err.Error())
	ot.span.End()

	fields := append(append([]any{}, ot.fields...), "duration_ms", duration.Milliseconds(), "error", err)
	logAt(ot.ctx, zapcore.ErrorLevel, 0, "Operation failed", append(fields, additionalFields...)...)
}

// Context returns the context carrying the operation span
func (ot *OperationTimer) Context() context.Context {
	return ot.ctx
}

func toAttributes(fields []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		}
	}
	return attrs
}

func addEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := oteltrace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent(name, oteltrace.WithAttributes(attrs...))
	}
}

// Decision logs a signal evaluation outcome
func Decision(ctx context.Context, symbol, action string, prediction float64, reason string, fields ...any) {
	addEvent(ctx, "trading_decision",
		attribute.String("symbol", symbol),
		attribute.String("action", action),
		attribute.Float64("prediction", prediction),
		attribute.String("reason", reason),
	)
	all := append([]any{
		"type", "DECISION",
		"symbol", symbol,
		"action", action,
		"prediction", prediction,
		"reason", reason,
	}, fields...)
	logAt(ctx, zapcore.InfoLevel, 0, "Trading decision made", all...)
}

// Trade logs an order leg accepted by the venue
func Trade(ctx context.Context, symbol, side string, amount, price float64, orderID string, fields ...any) {
	addEvent(ctx, "trade_executed",
		attribute.String("symbol", symbol),
		attribute.String("side", side),
		attribute.Float64("amount", amount),
		attribute.Float64("price", price),
		attribute.String("order_id", orderID),
	)
	all := append([]any{
		"type", "TRADE",
		"symbol", symbol,
		"side", side,
		"amount", amount,
		"price", price,
		"order_id", orderID,
	}, fields...)
	logAt(ctx, zapcore.InfoLevel, 0, "Trade executed", all...)
}

// Risk logs a risk management event
func Risk(ctx context.Context, symbol, eventType string, fields ...any) {
	addEvent(ctx, "risk_event",
		attribute.String("symbol", symbol),
		attribute.String("event_type", eventType),
	)
	all := append([]any{
		"type", "RISK",
		"symbol", symbol,
		"event_type", eventType,
	}, fields...)
	logAt(ctx, zapcore.WarnLevel, 0, "Risk event", all...)
}

func IsDebugEnabled() bool {
	return base.Load().Core().Enabled(zapcore.DebugLevel)
}
