// Package observability wires OpenTelemetry tracing and metrics, with
// console, OTLP and Prometheus exporters selected from configuration.
package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds the application instruments.
type Metrics struct {
	GatewayDuration metric.Float64Histogram
	GatewayRequests metric.Int64Counter
	GatewayErrors   metric.Int64Counter
	GatewayTokens   metric.Int64Histogram

	Extractions metric.Int64Counter
	Exports     metric.Int64Counter

	RateLimitHits metric.Int64Counter
	CertReloads   metric.Int64Counter
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config            ObservabilityConfig
	resource          *resource.Resource
	tracerProvider    *trace.TracerProvider
	meterProvider     *sdkmetric.MeterProvider
	meter             metric.Meter
	metrics           *Metrics
	shutdownFuncs     []func(context.Context) error
	prometheusHandler http.Handler
	prometheusServer  *http.Server
	logger            *errors.Logger
}

// NewObservabilityManager creates a new observability manager. A disabled
// configuration yields a manager whose recording methods do nothing.
func NewObservabilityManager(cfg ObservabilityConfig, logger *errors.Logger) (*ObservabilityManager, error) {
	om := &ObservabilityManager{config: cfg, logger: logger}
	if !cfg.Enabled {
		return om, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("service.instance.id", cfg.ServiceInstance),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	om.resource = res

	if cfg.TracingEnabled {
		if err := om.initTracing(); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.MetricsEnabled {
		if err := om.initMetrics(); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	return om, nil
}

func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.config.OTLP.Enabled:
		exporter, err = om.createOTLPExporter()
	default:
		// Spans still propagate context for otelhttp; nothing is exported
		exporter = noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.TraceIDRatioBased(om.config.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	om.meter = mp.Meter(om.config.ServiceName)
	metrics, err := newMetrics(om.meter)
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.collectionInterval())))
	}

	if om.config.OTLP.Enabled {
		reader, err := om.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	if om.config.Prometheus.Enabled {
		reader, handler, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, err
		}
		readers = append(readers, reader)
		om.prometheusHandler = handler
		om.prometheusServer = StartPrometheusServer(handler, om.config.Prometheus, om.logger)
		if om.prometheusServer != nil {
			om.shutdownFuncs = append(om.shutdownFuncs, om.prometheusServer.Shutdown)
		}
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.GatewayDuration, err = meter.Float64Histogram(
		"atsopt_gateway_duration_seconds",
		metric.WithDescription("Time spent waiting for the AI model"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create gateway duration metric: %w", err)
	}

	if m.GatewayRequests, err = meter.Int64Counter(
		"atsopt_gateway_requests_total",
		metric.WithDescription("Total number of AI gateway calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create gateway request metric: %w", err)
	}

	if m.GatewayErrors, err = meter.Int64Counter(
		"atsopt_gateway_errors_total",
		metric.WithDescription("Total number of failed AI gateway calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create gateway error metric: %w", err)
	}

	if m.GatewayTokens, err = meter.Int64Histogram(
		"atsopt_gateway_tokens",
		metric.WithDescription("Token usage per AI call by token type"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create token usage metric: %w", err)
	}

	if m.Extractions, err = meter.Int64Counter(
		"atsopt_extractions_total",
		metric.WithDescription("Documents converted to text"),
	); err != nil {
		return nil, fmt.Errorf("failed to create extraction metric: %w", err)
	}

	if m.Exports, err = meter.Int64Counter(
		"atsopt_exports_total",
		metric.WithDescription("Resumes exported for download"),
	); err != nil {
		return nil, fmt.Errorf("failed to create export metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"atsopt_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit metric: %w", err)
	}

	if m.CertReloads, err = meter.Int64Counter(
		"atsopt_cert_reloads_total",
		metric.WithDescription("TLS certificate reload attempts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create certificate reload metric: %w", err)
	}

	return m, nil
}

// GetMetrics returns the metrics instance, or nil when metrics are off.
func (om *ObservabilityManager) GetMetrics() *Metrics {
	return om.metrics
}

// PrometheusHandler returns the scrape handler, or nil when Prometheus is off.
func (om *ObservabilityManager) PrometheusHandler() http.Handler {
	return om.prometheusHandler
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	opts := []otelhttp.Option{}
	if om.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(om.tracerProvider))
	}
	if om.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(om.meterProvider))
	}
	return otelhttp.NewMiddleware(om.config.ServiceName, opts...)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown flushes exporters and stops the Prometheus listener.
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// ObserveGeneration records one AI gateway call.
func (om *ObservabilityManager) ObserveGeneration(ctx context.Context, op types.Operation, provider, model string, duration time.Duration, usage *types.TokenUsage, err error) {
	if om == nil || om.metrics == nil {
		return
	}
	m := om.metrics

	attrs := []attribute.KeyValue{
		attribute.String("operation", string(op)),
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.Bool("success", err == nil),
	}
	set := metric.WithAttributes(attrs...)

	m.GatewayDuration.Record(ctx, duration.Seconds(), set)
	m.GatewayRequests.Add(ctx, 1, set)
	if err != nil {
		m.GatewayErrors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("error_type", string(errors.TypeOf(err))))...))
	}

	if usage == nil {
		return
	}
	for _, t := range []struct {
		kind  string
		value int32
	}{
		{"input", usage.PromptTokens},
		{"output", usage.CompletionTokens},
		{"total", usage.TotalTokens},
	} {
		m.GatewayTokens.Record(ctx, int64(t.value), metric.WithAttributes(
			attribute.String("operation", string(op)),
			attribute.String("provider", provider),
			attribute.String("token_type", t.kind),
		))
	}
}

// RecordExtraction records one document conversion.
func (om *ObservabilityManager) RecordExtraction(ctx context.Context, kind types.DocumentKind, duration time.Duration, err error) {
	if om == nil || om.metrics == nil {
		return
	}
	om.metrics.Extractions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.Bool("success", err == nil),
	))
}

// RecordExport records one export attempt.
func (om *ObservabilityManager) RecordExport(ctx context.Context, format string, err error) {
	if om == nil || om.metrics == nil {
		return
	}
	om.metrics.Exports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("success", err == nil),
	))
}

// RegisterSessionGauge reports count() as atsopt_sessions_active on every
// collection.
func (om *ObservabilityManager) RegisterSessionGauge(count func() int) error {
	if om == nil || om.meter == nil {
		return nil
	}
	_, err := om.meter.Int64ObservableGauge(
		"atsopt_sessions_active",
		metric.WithDescription("Sessions currently held in memory"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create session metric: %w", err)
	}
	return nil
}

// RecordRateLimitHit counts a rejected request.
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, keyType string) {
	if om == nil || om.metrics == nil {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// RecordCertReload counts a certificate reload attempt.
func (om *ObservabilityManager) RecordCertReload(ctx context.Context, err error) {
	if om == nil || om.metrics == nil {
		return
	}
	om.metrics.CertReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
}

type noOpSpanExporter struct{}

func (noOpSpanExporter) ExportSpans(context.Context, []trace.ReadOnlySpan) error { return nil }
func (noOpSpanExporter) Shutdown(context.Context) error                         { return nil }

func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := om.config.OTLP

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func (om *ObservabilityManager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := om.config.OTLP

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.collectionInterval())), nil
}

func (om *ObservabilityManager) collectionInterval() time.Duration {
	if om.config.CollectionInterval > 0 {
		return om.config.CollectionInterval
	}
	return 15 * time.Second
}
