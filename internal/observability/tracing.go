package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the instrumentation scope used by billing spans.
	TracerName = "github.com/davidbz/creditmeter"

	tracerShutdownTimeout = 5 * time.Second
)

// TracingConfig selects the span exporter.
type TracingConfig struct {
	ServiceName  string `env:"OTEL_SERVICE_NAME"       envDefault:"creditmeter"`
	ExporterType string `env:"OTEL_EXPORTER_TYPE"      envDefault:"none"`
	Endpoint     string `env:"OTEL_EXPORTER_ENDPOINT"  envDefault:"localhost:4317"`
}

// InitTracer installs the global tracer provider and returns its shutdown function.
// ExporterType "none" keeps the default no-op provider.
func InitTracer(cfg *TracingConfig) (func(), error) {
	ctx := context.Background()

	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.ExporterType {
	case "none", "":
		return func() {}, nil
	case "otlp":
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown trace exporter type: %s", cfg.ExporterType)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			FromContext(shutdownCtx).Warn("failed to shutdown tracer provider", Error(err))
		}
	}

	return shutdown, nil
}

// Tracer returns the billing tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
