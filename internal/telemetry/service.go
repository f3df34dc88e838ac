// Package telemetry wires OpenTelemetry tracing and metrics for the notes API.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/notekeeper/notes/internal/config"
	"github.com/notekeeper/notes/internal/slogging"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Service manages OpenTelemetry providers and the Prometheus registry
type Service struct {
	config config.TelemetryConfig

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *promclient.Registry

	tracer trace.Tracer
	meter  metric.Meter

	resource    *resource.Resource
	traceWriter io.Writer
}

// Option customizes a Service
type Option func(*Service)

// WithTraceWriter sets where spans go when no OTLP endpoint is configured
func WithTraceWriter(w io.Writer) Option {
	return func(s *Service) {
		s.traceWriter = w
	}
}

// NewService creates the telemetry service. Disabled signals get no-op
// providers so callers never need nil checks.
func NewService(ctx context.Context, cfg config.TelemetryConfig, opts ...Option) (*Service, error) {
	s := &Service{
		config:      cfg,
		traceWriter: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initResource(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if cfg.TracingEnabled {
		if err := s.initTracing(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	} else {
		s.tracer = tracenoop.NewTracerProvider().Tracer(cfg.ServiceName)
	}

	if cfg.MetricsEnabled {
		if err := s.initMetrics(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	} else {
		s.meter = metricnoop.NewMeterProvider().Meter(cfg.ServiceName)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slogging.Get().Info("Telemetry initialized: tracing=%t metrics=%t", cfg.TracingEnabled, cfg.MetricsEnabled)
	return s, nil
}

func (s *Service) initResource(ctx context.Context) error {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", s.config.ServiceName),
			attribute.String("service.version", s.config.ServiceVersion),
			attribute.String("deployment.environment", s.config.Environment),
		),
	)
	if err != nil {
		return err
	}
	s.resource = res
	return nil
}

func (s *Service) initTracing(ctx context.Context) error {
	var exporter sdktrace.SpanExporter
	var processor sdktrace.SpanProcessor

	if s.config.TracingEndpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.config.TracingEndpoint)}
		if s.config.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		otlpExporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		exporter = otlpExporter
		processor = sdktrace.NewBatchSpanProcessor(exporter)
	} else {
		consoleExporter, err := stdouttrace.New(stdouttrace.WithWriter(s.traceWriter))
		if err != nil {
			return fmt.Errorf("failed to create console trace exporter: %w", err)
		}
		exporter = consoleExporter
		// immediate export keeps console output in request order
		processor = sdktrace.NewSimpleSpanProcessor(exporter)
	}

	var sampler sdktrace.Sampler
	switch rate := s.config.TracingSampleRate; {
	case rate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case rate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(rate)
	}

	s.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(s.resource),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
		sdktrace.WithSpanProcessor(processor),
	)
	otel.SetTracerProvider(s.tracerProvider)

	s.tracer = s.tracerProvider.Tracer(
		s.config.ServiceName,
		trace.WithInstrumentationVersion(s.config.ServiceVersion),
	)
	return nil
}

func (s *Service) initMetrics(ctx context.Context) error {
	s.registry = promclient.NewRegistry()
	if err := s.registry.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := s.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return fmt.Errorf("failed to register process collector: %w", err)
	}

	prometheusExporter, err := prometheus.New(prometheus.WithRegisterer(s.registry))
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(s.resource),
		sdkmetric.WithReader(prometheusExporter),
	}

	if s.config.MetricsEndpoint != "" {
		exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(s.config.MetricsEndpoint)}
		if s.config.Insecure {
			exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
		}
		otlpExporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(otlpExporter, sdkmetric.WithInterval(s.config.MetricsInterval)),
		))
	}

	s.meterProvider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(s.meterProvider)

	s.meter = s.meterProvider.Meter(
		s.config.ServiceName,
		metric.WithInstrumentationVersion(s.config.ServiceVersion),
	)
	return nil
}

// Tracer returns the service tracer
func (s *Service) Tracer() trace.Tracer {
	return s.tracer
}

// Meter returns the service meter
func (s *Service) Meter() metric.Meter {
	return s.meter
}

// TracingEnabled reports whether spans are recorded
func (s *Service) TracingEnabled() bool {
	return s.tracerProvider != nil
}

// TracerProvider returns the SDK tracer provider, nil when tracing is off
func (s *Service) TracerProvider() *sdktrace.TracerProvider {
	return s.tracerProvider
}

// PrometheusHandler serves the scrape endpoint, nil when metrics are off
func (s *Service) PrometheusHandler() http.Handler {
	if s.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Shutdown flushes and stops all providers
func (s *Service) Shutdown(ctx context.Context) error {
	var errs []error

	if s.tracerProvider != nil {
		if err := s.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}

	if s.meterProvider != nil {
		if err := s.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
