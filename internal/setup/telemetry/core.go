package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

// errorCategories maps caller package fragments to span categories, checked in order.
var errorCategories = []string{"tracker", "card", "fetcher", "redis", "discord", "scheduler", "setup"}

// SpanCore is a zapcore.Core that records every error-level entry as an
// OpenTelemetry span named "error.<category>".
type SpanCore struct {
	zapcore.LevelEnabler
	tracer trace.Tracer
	fields []zapcore.Field
}

// NewSpanCore creates a SpanCore using the global tracer provider.
func NewSpanCore(enab zapcore.LevelEnabler) *SpanCore {
	return &SpanCore{
		LevelEnabler: enab,
		tracer:       otel.Tracer("logs"),
	}
}

// With returns a core that also records fields.
func (c *SpanCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)

	return &SpanCore{LevelEnabler: c.LevelEnabler, tracer: c.tracer, fields: merged}
}

// Check adds the core when the entry is at error level or above.
func (c *SpanCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.Level >= zapcore.ErrorLevel && c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write records the entry as a span.
func (c *SpanCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	_, span := c.tracer.Start(context.Background(), "error."+ErrorCategory(ent.Caller.Function))
	defer span.End()

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	attrs := make([]attribute.KeyValue, 0, len(enc.Fields)+4)
	attrs = append(attrs,
		attribute.String("log.message", ent.Message),
		attribute.String("log.level", ent.Level.String()),
		attribute.String("log.caller", ent.Caller.String()),
		attribute.String("log.logger", ent.LoggerName),
	)
	for k, v := range enc.Fields {
		attrs = append(attrs, attribute.String(k, fmt.Sprint(v)))
	}

	span.SetAttributes(attrs...)
	span.SetStatus(codes.Error, ent.Message)

	return nil
}

// Sync is a no-op; spans are flushed by the tracer provider.
func (c *SpanCore) Sync() error {
	return nil
}

// ErrorCategory derives a span category from a caller function name.
func ErrorCategory(function string) string {
	for _, category := range errorCategories {
		if strings.Contains(function, "/"+category+".") || strings.Contains(function, "/"+category+"/") {
			return category
		}
	}
	return "application"
}
