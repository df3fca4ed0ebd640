// Package telemetry exports collector run traces over OTLP/HTTP.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
)

// Resource attribute keys identifying a collector run.
const (
	AttrCommand = attribute.Key("dashcollect.command")
	AttrRunID   = attribute.Key("dashcollect.run_id")
)

// Options describes one traced collector run.
type Options struct {
	Enabled     bool
	ServiceName string
	// Endpoint is a collector host:port (plain HTTP) or a full http(s) URL.
	Endpoint string
	Command  string
	RunID    string
}

// NewProvider builds a batching tracer provider exporting to opts.Endpoint.
// Globals are left untouched; see Install.
func NewProvider(ctx context.Context, opts Options) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx, exporterOptions(opts.Endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := newResource(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	), nil
}

// Install makes tp and the W3C trace context propagator the process globals.
func Install(tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Shutdown flushes pending spans and stops tp.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// Setup installs tracing for a run when enabled and returns its shutdown function.
// Tracing problems are logged and never fail the run; the returned function is always safe to call.
func Setup(ctx context.Context, opts Options, logger *zap.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !opts.Enabled {
		return noop
	}
	if opts.Endpoint == "" {
		logger.Warn("otel_enabled_but_endpoint_not_configured")
		return noop
	}
	tp, err := NewProvider(ctx, opts)
	if err != nil {
		logger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return noop
	}
	Install(tp)
	logger.Info("otel_tracer_initialized", zap.String("endpoint", opts.Endpoint))
	return func(ctx context.Context) error {
		return Shutdown(ctx, tp)
	}
}

func exporterOptions(endpoint string) []otlptracehttp.Option {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	}
	return []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	}
}

func newResource(ctx context.Context, opts Options) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(opts.ServiceName)}
	if opts.Command != "" {
		attrs = append(attrs, AttrCommand.String(opts.Command))
	}
	if opts.RunID != "" {
		attrs = append(attrs, AttrRunID.String(opts.RunID))
	}
	return resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(attrs...),
	)
}
