package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "e2e-harness"

// Provider exports scenario and step spans as JSON lines. A Provider built
// with a nil writer hands out a no-op tracer.
type Provider struct {
	provider *sdktrace.TracerProvider
}

func NewProvider(w io.Writer, serviceName string, pretty bool) (*Provider, error) {
	if w == nil {
		return &Provider{}, nil
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)

	return &Provider{
		provider: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		),
	}, nil
}

func (p *Provider) Tracer() trace.Tracer {
	if p.provider == nil {
		return noop.NewTracerProvider().Tracer(tracerName)
	}
	return p.provider.Tracer(tracerName)
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
