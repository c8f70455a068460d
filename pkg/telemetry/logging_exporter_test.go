package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLoggingSpanProcessorEmitsSpan(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewLoggingSpanProcessor(logger)),
	)

	ctx := context.Background()
	_, span := provider.Tracer("test").Start(ctx, "vpn-open")
	span.SetAttributes(attribute.String("device", "gateway-1"))
	span.End()
	require.NoError(t, provider.Shutdown(ctx))

	out := buf.String()
	require.Contains(t, out, "vpn-open")
	require.Contains(t, out, "gateway-1")
	require.Contains(t, out, "trace_id")
}
