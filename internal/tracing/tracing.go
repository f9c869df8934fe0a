// Package tracing sends the spans of the flock server API to an OTLP
// collector.
package tracing

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/lao-tseu-is-alive/go-flock-quadtree/internal/server"

// Options come from the OTEL_* environment variables, see FromEnv.
type Options struct {
	Enabled bool
	// host:port of the collector, no scheme
	Endpoint   string
	SampleRate float64
}

// FromEnv reads OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT and
// OTEL_TRACE_SAMPLE_RATE. A missing or out of range rate samples 10%.
func FromEnv() Options {
	opts := Options{
		Enabled:    os.Getenv("OTEL_ENABLED") == "true",
		Endpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SampleRate: 0.1,
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "localhost:4318"
	}
	if v, err := strconv.ParseFloat(os.Getenv("OTEL_TRACE_SAMPLE_RATE"), 64); err == nil && v >= 0 && v <= 1 {
		opts.SampleRate = v
	}
	return opts
}

// Init installs the global tracer provider. The returned function flushes
// pending spans; it is a no-op when tracing is disabled.
func Init(ctx context.Context, service string, opts Options) (func(context.Context) error, error) {
	if !opts.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(service),
		semconv.ServiceVersionKey.String(version()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(opts.SampleRate)),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// version is the module version the binary was built from.
func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// StartSpan starts a span on the global provider, a no-op one until Init
// enabled tracing.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, opts...)
}
