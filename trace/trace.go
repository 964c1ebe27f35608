// Package trace wires OpenTelemetry tracing for intentbench. Spans are
// exported as JSON to a file when one is configured; otherwise the global
// no-op provider stays in place and span creation costs nothing.
//
//	shutdown, err := trace.Setup(ctx, "spans.json", version)
//	defer shutdown(ctx)
//
//	ctx, span := trace.Start(ctx, "intent.classify")
//	defer span.End()
package trace

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/greynewell/intentbench/errors"
)

// InstrumentationName is the tracer name used by every span in the module.
const InstrumentationName = "github.com/greynewell/intentbench"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider that writes spans to path.
// An empty path leaves the no-op provider installed.
func Setup(ctx context.Context, path, version string) (ShutdownFunc, error) {
	if path == "" {
		return func(context.Context) error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeValidation, err, "create trace file %s", path)
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return nil, errors.Wrap(errors.CodeInternal, err, "trace exporter")
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", "intentbench"),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// Start begins a span from the global provider.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, name, oteltrace.WithAttributes(attrs...))
}

// Fail records err on span and marks it as failed. A nil err is a no-op.
func Fail(span oteltrace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
