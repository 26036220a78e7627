package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(Options{Level: "debug", Format: "json", Output: path, Service: "seoblog"})
	require.NoError(t, err)

	log.Info("hello", zap.String("k", "v"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"seoblog"`)
}

func TestNew_BadOutputPath(t *testing.T) {
	_, err := New(Options{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestContextValues(t *testing.T) {
	ctx := WithRunID(WithStage(WithRequestID(context.Background(), "req-1"), "publisher"), "run-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "run-9", GetRunID(ctx))
	assert.Equal(t, "publisher", GetStage(ctx))
	assert.Empty(t, GetRunID(context.Background()))
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	core, _ := observer.New(zapcore.InfoLevel)
	l := zap.New(core)
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestL_AddsCorrelationFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRunID(ctx, "run-1")
	ctx = WithStage(ctx, "content_writer")

	L(ctx, base).Info("stage started")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "content_writer", fields["stage"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}

func TestL_NilBase(t *testing.T) {
	assert.NotPanics(t, func() { L(context.Background(), nil).Info("x") })
}
