package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/auditdoc/auditdoc/pkg/defaults"
)

func TestNewWithExporter(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p := NewWithExporter(exp, Options{})
	ctx := context.Background()

	_, span := p.Tracer().Start(ctx, "ok")
	End(span, nil, attribute.String("route", "/schemas"))
	_, span = p.Tracer().Start(ctx, "failed")
	End(span, errors.New("boom"))

	require.NoError(t, p.ForceFlush(ctx))
	spans := exp.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "ok", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("route", "/schemas"))

	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "boom", spans[1].Status.Description)
	require.Len(t, spans[1].Events, 1, "RecordError adds an exception event")

	name, ok := spans[0].Resource.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, defaults.ToolName, name.AsString())

	require.NoError(t, p.Shutdown(ctx))
}

func TestNoop(t *testing.T) {
	p := Noop()
	_, span := p.Tracer().Start(context.Background(), "discarded")
	assert.False(t, span.SpanContext().IsValid())
	End(span, errors.New("ignored"))
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NoError(t, p.ForceFlush(context.Background()))
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_Lazy(t *testing.T) {
	// The gRPC exporter connects lazily, so an unreachable endpoint still
	// yields a provider.
	p, err := New(context.Background(), Options{Endpoint: "127.0.0.1:1", Insecure: true})
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
}
