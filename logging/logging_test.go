package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New("intentbench", LevelInfo, WithWriter(&buf), WithFormat("json"))

	log.Info(context.Background(), "started", "rows", 12)

	entry := decode(t, &buf)
	assert.Equal(t, "intentbench", entry["tool"])
	assert.Equal(t, "started", entry["msg"])
	assert.EqualValues(t, 12, entry["rows"])
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", LevelInfo, WithWriter(&buf), WithFormat("json"))

	log.Debug(context.Background(), "debug msg")
	assert.Zero(t, buf.Len(), "debug should be filtered at info level")

	log.Warn(context.Background(), "warn msg")
	assert.NotZero(t, buf.Len())
	buf.Reset()

	log.SetLevel(LevelDebug)
	log.Debug(context.Background(), "debug msg")
	assert.NotZero(t, buf.Len(), "debug should pass after SetLevel")
}

func TestRunIDInjected(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", LevelInfo, WithWriter(&buf))

	ctx := WithRunID(context.Background(), "run-42")
	log.Info(ctx, "hello")

	assert.Equal(t, "run-42", decode(t, &buf)["run_id"])
	assert.Equal(t, "run-42", RunID(ctx))
	assert.Equal(t, "", RunID(context.Background()))
}

func TestTraceIDsInjected(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", LevelInfo, WithWriter(&buf))

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	log.Info(ctx, "inside span")

	entry := decode(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", LevelInfo, WithWriter(&buf), WithFormat("text"))
	log.Info(context.Background(), "plain", "k", "v")
	assert.Contains(t, buf.String(), "msg=plain")
	assert.Contains(t, buf.String(), "k=v")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", LevelInfo, WithWriter(&buf)).With("component", "client")
	log.Info(context.Background(), "x")
	assert.Equal(t, "client", decode(t, &buf)["component"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo,
		"warn": LevelWarn, "warning": LevelWarn, "error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	Discard().Error(context.Background(), "dropped")
}
