package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	apperrors "cprcli/internal/errors"
)

const (
	ServiceName    = "cpr-indicator"
	ServiceVersion = "v1.0.0"
	MeterName      = "cprcli"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  env == "development",
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes OpenTelemetry tracing and metrics
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	// Set up global propagators for trace context
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Fetch metrics
	ReportsListedTotal     metric.Int64Counter
	ReportsDownloadedTotal metric.Int64Counter
	DownloadDuration       metric.Float64Histogram
	DownloadBytes          metric.Int64Counter
	CacheHits              metric.Int64Counter
	CacheMisses            metric.Int64Counter

	// Extraction metrics
	ReportsParsedTotal   metric.Int64Counter
	ReportsFailedTotal   metric.Int64Counter
	ReportParseDuration  metric.Float64Histogram
	SheetsExtractedTotal metric.Int64Counter
	RowsExtractedTotal   metric.Int64Counter
	SchemaDriftTotal     metric.Int64Counter

	// Run metrics
	RunExecutionsTotal metric.Int64Counter
	RunDuration        metric.Float64Histogram
	ActiveRuns         metric.Int64UpDownCounter
	RunErrors          metric.Int64Counter

	// Export metrics
	CSVFilesWrittenTotal metric.Int64Counter
	ExportDuration       metric.Float64Histogram

	// System metrics
	SystemErrors metric.Int64Counter
	SystemUptime metric.Float64UpDownCounter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	// HTTP metrics
	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	// Fetch metrics
	if m.ReportsListedTotal, err = meter.Int64Counter(
		"reports_listed_total",
		metric.WithDescription("Total number of report files seen in catalog listings"),
	); err != nil {
		return nil, err
	}

	if m.ReportsDownloadedTotal, err = meter.Int64Counter(
		"reports_downloaded_total",
		metric.WithDescription("Total number of report files downloaded"),
	); err != nil {
		return nil, err
	}

	if m.DownloadDuration, err = meter.Float64Histogram(
		"report_download_duration_seconds",
		metric.WithDescription("Report download duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.DownloadBytes, err = meter.Int64Counter(
		"report_download_bytes",
		metric.WithDescription("Total bytes of report files downloaded"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	if m.CacheHits, err = meter.Int64Counter(
		"report_cache_hits_total",
		metric.WithDescription("Total number of report cache hits"),
	); err != nil {
		return nil, err
	}

	if m.CacheMisses, err = meter.Int64Counter(
		"report_cache_misses_total",
		metric.WithDescription("Total number of report cache misses"),
	); err != nil {
		return nil, err
	}

	// Extraction metrics
	if m.ReportsParsedTotal, err = meter.Int64Counter(
		"reports_parsed_total",
		metric.WithDescription("Total number of report files parsed successfully"),
	); err != nil {
		return nil, err
	}

	if m.ReportsFailedTotal, err = meter.Int64Counter(
		"reports_failed_total",
		metric.WithDescription("Total number of report files that failed to parse"),
	); err != nil {
		return nil, err
	}

	if m.ReportParseDuration, err = meter.Float64Histogram(
		"report_parse_duration_seconds",
		metric.WithDescription("Report parse duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.SheetsExtractedTotal, err = meter.Int64Counter(
		"sheets_extracted_total",
		metric.WithDescription("Total number of sheets extracted"),
	); err != nil {
		return nil, err
	}

	if m.RowsExtractedTotal, err = meter.Int64Counter(
		"rows_extracted_total",
		metric.WithDescription("Total number of signal rows extracted"),
	); err != nil {
		return nil, err
	}

	if m.SchemaDriftTotal, err = meter.Int64Counter(
		"schema_drift_total",
		metric.WithDescription("Total number of schema drift failures"),
	); err != nil {
		return nil, err
	}

	// Run metrics
	if m.RunExecutionsTotal, err = meter.Int64Counter(
		"run_executions_total",
		metric.WithDescription("Total number of ingestion runs"),
	); err != nil {
		return nil, err
	}

	if m.RunDuration, err = meter.Float64Histogram(
		"run_duration_seconds",
		metric.WithDescription("Ingestion run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.ActiveRuns, err = meter.Int64UpDownCounter(
		"active_runs",
		metric.WithDescription("Number of ingestion runs in flight"),
	); err != nil {
		return nil, err
	}

	if m.RunErrors, err = meter.Int64Counter(
		"run_errors_total",
		metric.WithDescription("Total number of failed ingestion runs"),
	); err != nil {
		return nil, err
	}

	// Export metrics
	if m.CSVFilesWrittenTotal, err = meter.Int64Counter(
		"csv_files_written_total",
		metric.WithDescription("Total number of CSV export files written"),
	); err != nil {
		return nil, err
	}

	if m.ExportDuration, err = meter.Float64Histogram(
		"export_duration_seconds",
		metric.WithDescription("CSV export duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// System metrics
	if m.SystemErrors, err = meter.Int64Counter(
		"system_errors_total",
		metric.WithDescription("Total number of system errors"),
	); err != nil {
		return nil, err
	}

	if m.SystemUptime, err = meter.Float64UpDownCounter(
		"system_uptime_seconds",
		metric.WithDescription("System uptime in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, anyAttribute(k, v))
	}

	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		span.SetAttributes(anyAttribute(k, v))
	}
}

// anyAttribute converts a dynamic value to an otel attribute
func anyAttribute(k string, v interface{}) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(k, val)
	case int:
		return attribute.Int(k, val)
	case int64:
		return attribute.Int64(k, val)
	case float64:
		return attribute.Float64(k, val)
	case bool:
		return attribute.Bool(k, val)
	default:
		return attribute.String(k, fmt.Sprintf("%v", val))
	}
}

// RecordRunMetrics records metrics for an ingestion run
func RecordRunMetrics(ctx context.Context, metrics *BusinessMetrics, runID string, duration time.Duration, success bool, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("run.id", runID),
	}

	metrics.RunExecutionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if !success {
		statusAttr = attribute.String("status", "failure")
	}
	metrics.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(append(attrs, statusAttr)...))

	if err != nil {
		errorAttrs := append(attrs, errorTypeAttribute(err))
		metrics.RunErrors.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("run.metrics_recorded",
			trace.WithAttributes(
				attribute.String("run.id", runID),
				attribute.Bool("success", success),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordReportParse records per-file parse metrics; err nil means success
func RecordReportParse(ctx context.Context, metrics *BusinessMetrics, filename string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("report.filename", filename),
	}

	metrics.ReportParseDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if err == nil {
		metrics.ReportsParsedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		return
	}

	metrics.ReportsFailedTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, errorTypeAttribute(err))...))
	if apperrors.IsSchemaDrift(err) {
		metrics.SchemaDriftTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCacheAccess records a cache hit or miss for a report file
func RecordCacheAccess(ctx context.Context, metrics *BusinessMetrics, hit bool) {
	if metrics == nil {
		return
	}

	if hit {
		metrics.CacheHits.Add(ctx, 1)
	} else {
		metrics.CacheMisses.Add(ctx, 1)
	}
}

// RecordDownload records a completed report download
func RecordDownload(ctx context.Context, metrics *BusinessMetrics, bytes int64, duration time.Duration) {
	if metrics == nil {
		return
	}

	metrics.ReportsDownloadedTotal.Add(ctx, 1)
	metrics.DownloadBytes.Add(ctx, bytes)
	metrics.DownloadDuration.Record(ctx, duration.Seconds())
}

// RecordExport records the files written for one exported signal table
func RecordExport(ctx context.Context, metrics *BusinessMetrics, files int64, duration time.Duration) {
	if metrics == nil {
		return
	}

	metrics.CSVFilesWrittenTotal.Add(ctx, files)
	metrics.ExportDuration.Record(ctx, duration.Seconds())
}

// RecordActiveRunChange records changes in the in-flight run count
func RecordActiveRunChange(ctx context.Context, metrics *BusinessMetrics, delta int64) {
	if metrics == nil {
		return
	}

	metrics.ActiveRuns.Add(ctx, delta)
}

// errorTypeAttribute labels an error with its pipeline classification,
// falling back to the Go type for unclassified errors.
func errorTypeAttribute(err error) attribute.KeyValue {
	if t := apperrors.TypeOf(err); t != "" {
		return attribute.String("error.type", string(t))
	}
	return attribute.String("error.type", fmt.Sprintf("%T", err))
}
