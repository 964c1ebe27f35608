// Package logging provides structured, trace-aware logging for intentbench.
// Built on log/slog, it adds the run ID and the active OpenTelemetry
// trace_id/span_id from context to every entry.
//
// Usage:
//
//	log := logging.New("intentbench", logging.LevelInfo)
//	ctx = logging.WithRunID(ctx, runID)
//	log.Info(ctx, "dispatch started", "rows", 120, "jobs", 4)
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// Level aliases slog.Level for convenience.
type Level = slog.Level

// Standard log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger is a trace-aware structured logger.
type Logger struct {
	slog  *slog.Logger
	tool  string
	level *slog.LevelVar
}

// Option configures a Logger.
type Option func(*config)

type config struct {
	writer io.Writer
	format string // "json" or "text"
}

// WithWriter sets the output writer. Default is os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.writer = w }
}

// WithFormat sets the output format: "json" or "text". Default is "json".
func WithFormat(format string) Option {
	return func(c *config) { c.format = format }
}

// New creates a Logger for the given tool name and minimum level.
func New(tool string, level Level, opts ...Option) *Logger {
	cfg := config{
		writer: os.Stderr,
		format: "json",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	lv := &slog.LevelVar{}
	lv.Set(level)

	var handler slog.Handler
	handlerOpts := &slog.HandlerOptions{Level: lv}

	if cfg.format == "text" {
		handler = slog.NewTextHandler(cfg.writer, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.writer, handlerOpts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("tool", tool),
	})

	return &Logger{
		slog:  slog.New(handler),
		tool:  tool,
		level: lv,
	}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New("discard", LevelError+1, WithWriter(io.Discard))
}

// ParseLevel converts a level name (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// SetLevel dynamically changes the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelError, msg, args...)
}

func (l *Logger) log(ctx context.Context, level Level, msg string, args ...any) {
	if !l.slog.Enabled(ctx, level) {
		return
	}

	if id := RunID(ctx); id != "" {
		args = append(args, "run_id", id)
	}
	if sc := oteltrace.SpanContextFromContext(ctx); sc.IsValid() {
		args = append(args, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}

	l.slog.Log(ctx, level, msg, args...)
}

// With returns a new Logger with additional permanent attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:  l.slog.With(args...),
		tool:  l.tool,
		level: l.level,
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

type runIDKey struct{}

// WithRunID attaches a run identifier to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run identifier attached to ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
