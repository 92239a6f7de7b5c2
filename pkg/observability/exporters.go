package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

type shutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

type tracingSetup struct {
	provider trace.TracerProvider
	shutdown shutdownFunc
}

type metricsSetup struct {
	provider metric.MeterProvider
	handler  http.Handler
	shutdown shutdownFunc
}

// newTracing exports spans over OTLP gRPC when an endpoint is configured.
// OTEL_TRACES_SAMPLER is honored by the SDK; a positive SampleRatio wins
// over it.
func newTracing(ctx context.Context, cfg Config, res *resource.Resource) (tracingSetup, error) {
	if cfg.OTLPEndpoint == "" {
		return tracingSetup{provider: nooptrace.NewTracerProvider(), shutdown: noopShutdown}, nil
	}

	grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
	if err != nil {
		return tracingSetup{}, fmt.Errorf("create trace exporter: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithBatcher(exporter), sdktrace.WithResource(res)}
	if cfg.SampleRatio > 0 {
		opts = append(opts, sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	return tracingSetup{provider: tp, shutdown: tp.Shutdown}, nil
}

// newMetrics attaches a Prometheus reader, an OTLP periodic reader, or both.
// With neither, the provider is a no-op.
func newMetrics(ctx context.Context, cfg Config, res *resource.Resource) (metricsSetup, error) {
	if cfg.OTLPEndpoint == "" && !cfg.Prometheus {
		return metricsSetup{provider: noopmetric.NewMeterProvider(), shutdown: noopShutdown}, nil
	}

	var (
		opts    = []sdkmetric.Option{sdkmetric.WithResource(res)}
		handler http.Handler
	)

	if cfg.Prometheus {
		registry := prometheus.NewRegistry()

		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return metricsSetup{}, fmt.Errorf("create prometheus exporter: %w", err)
		}

		opts = append(opts, sdkmetric.WithReader(exporter))
		handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	if cfg.OTLPEndpoint != "" {
		grpcOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}

		if len(cfg.OTLPHeaders) > 0 {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders))
		}

		exporter, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return metricsSetup{}, fmt.Errorf("create metric exporter: %w", err)
		}

		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	return metricsSetup{provider: mp, handler: handler, shutdown: mp.Shutdown}, nil
}
