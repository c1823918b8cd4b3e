// Package telemetry exports auditdoc traces to an OpenTelemetry collector.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/auditdoc/auditdoc/pkg/defaults"
)

// InstrumentationName names the tracer used across auditdoc.
const InstrumentationName = "github.com/auditdoc/auditdoc"

// Options configures the trace exporter.
type Options struct {
	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// ServiceName is the service name for traces (default: "auditdoc").
	ServiceName string

	// Insecure uses insecure connection (no TLS).
	Insecure bool

	// Headers contains additional headers for the OTLP exporter.
	Headers map[string]string

	// ShutdownTimeout bounds span flushing in Shutdown (default: 5s).
	ShutdownTimeout time.Duration

	// ConnectionTimeout bounds exporter construction (default: 10s).
	ConnectionTimeout time.Duration
}

// Provider owns a tracer provider and the tracer handed to components.
type Provider struct {
	opts Options
	tp   *sdktrace.TracerProvider // nil for the no-op provider
	tr   trace.Tracer
}

// New connects an OTLP/gRPC exporter and installs the provider globally.
// Connection failures after construction do not block callers; spans are
// dropped until the collector is reachable.
func New(ctx context.Context, opts Options) (*Provider, error) {
	// Apply defaults
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaults.OTLPEndpoint
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = defaults.TelemetryShutdown
	}
	if opts.ConnectionTimeout == 0 {
		opts.ConnectionTimeout = defaults.TelemetryConnect
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectionTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating exporter: %w", err)
	}

	p := NewWithExporter(exporter, opts)
	otel.SetTracerProvider(p.tp)
	return p, nil
}

// NewWithExporter builds a provider around any span exporter, batching
// spans. It does not touch the global provider.
func NewWithExporter(exporter sdktrace.SpanExporter, opts Options) *Provider {
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = defaults.TelemetryShutdown
	}

	// Avoid merging with resource.Default to prevent schema URL conflicts.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return &Provider{opts: opts, tp: tp, tr: tp.Tracer(InstrumentationName)}
}

// Noop returns a provider whose spans are discarded.
func Noop() *Provider {
	return &Provider{tr: noop.NewTracerProvider().Tracer(InstrumentationName)}
}

// Tracer returns the tracer components start spans on.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	return p.tr
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.opts.ShutdownTimeout)
	defer cancel()
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown: %w", err)
	}
	return nil
}

// ForceFlush exports every finished span now.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.ForceFlush(ctx)
}

// End finishes span, marking it failed when err is non-nil.
func End(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
