package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	runIDKey
	stageKey
)

// WithContext stores a logger on the context.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the stored logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithRunID tags the context with the pipeline run being executed.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithStage tags the context with the agent stage currently running.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }
func GetRunID(ctx context.Context) string     { return stringValue(ctx, runIDKey) }
func GetStage(ctx context.Context) string     { return stringValue(ctx, stageKey) }

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// Fields collects correlation fields (request, run, stage, trace) from ctx.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetRunID(ctx); v != "" {
		fields = append(fields, zap.String("run_id", v))
	}
	if v := GetStage(ctx); v != "" {
		fields = append(fields, zap.String("stage", v))
	}
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()))
		}
	}
	return fields
}

// L returns base enriched with the correlation fields found in ctx. When the
// context carries its own logger that one is used instead of base.
func L(ctx context.Context, base *zap.Logger) *zap.Logger {
	l := base
	if ctx != nil {
		if stored, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
			l = stored
		}
	}
	if l == nil {
		l = zap.NewNop()
	}
	if f := Fields(ctx); len(f) > 0 {
		return l.With(f...)
	}
	return l
}
