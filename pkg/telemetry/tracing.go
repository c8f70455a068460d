// Package telemetry wires OpenTelemetry tracing for the EMS console. Spans
// are exported over OTLP/HTTP when an endpoint is configured; otherwise the
// provider stays local and processors (see NewLoggingSpanProcessor) decide
// what to do with completed spans.
package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// SetupTracing builds the tracer provider, installs it globally together
// with W3C trace-context propagation, and returns it for shutdown. An empty
// endpoint means no exporter; sampleRatio outside (0,1] is clamped to 1.
func SetupTracing(ctx context.Context, serviceName, serviceVersion, endpoint string, insecure bool, sampleRatio float64) (*sdktrace.TracerProvider, error) {
	if sampleRatio <= 0 || sampleRatio > 1 {
		sampleRatio = 1
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		)),
	}

	if endpoint != "" {
		host, insecureEndpoint, err := normalizeOtlpEndpoint(endpoint)
		if err != nil {
			return nil, err
		}

		clientOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(host)}
		if insecure || insecureEndpoint {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}

		exporter, err := otlptracehttp.New(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider, nil
}

// normalizeOtlpEndpoint strips an optional scheme. The OTLP HTTP exporter
// wants host[:port]; an http scheme additionally forces insecure transport.
func normalizeOtlpEndpoint(endpoint string) (host string, insecure bool, err error) {
	host = endpoint
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		host = strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		host = strings.TrimPrefix(endpoint, "http://")
		insecure = true
	}
	if host == "" {
		return "", false, errors.New("invalid OTLP endpoint")
	}
	return host, insecure, nil
}
