package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"tmdbcli/internal/config"
)

// InstrumentationName names the tracer and meter of the pipeline
const InstrumentationName = "tmdbcli"

// Telemetry holds the tracing and metrics providers of one run
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prom.Registry
	Metrics        *PipelineMetrics
	Runtime        *RuntimeMetrics

	traceFile   *os.File
	metricsPath string
	logger      *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics. When telemetry is disabled
// the tracer and meter are no-ops and Shutdown writes nothing.
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Telemetry{logger: logger}

	if !cfg.Enabled {
		t.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentationName)
		t.Meter = metricnoop.NewMeterProvider().Meter(InstrumentationName)
		if err := t.createInstruments(); err != nil {
			return nil, err
		}
		return t, nil
	}

	ctx := context.Background()
	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("trace_path", cfg.TracePath),
		slog.String("metrics_path", cfg.MetricsPath))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	if err := t.initializeTracing(cfg, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := t.initializeMetrics(cfg, res); err != nil {
		t.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return t, nil
}

// initializeTracing writes finished spans as JSON to cfg.TracePath.
// Without a path spans are still sampled so trace IDs exist, but nothing is exported.
func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}

	if cfg.TracePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.TracePath), 0755); err != nil {
			return err
		}
		file, err := os.Create(cfg.TracePath)
		if err != nil {
			return err
		}
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(file),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			file.Close()
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.traceFile = file
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}

	t.TracerProvider = sdktrace.NewTracerProvider(opts...)
	t.Tracer = t.TracerProvider.Tracer(InstrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	return nil
}

// initializeMetrics bridges OpenTelemetry instruments into a private
// Prometheus registry that Shutdown dumps to cfg.MetricsPath
func (t *Telemetry) initializeMetrics(cfg config.TelemetryConfig, res *resource.Resource) error {
	t.Registry = prom.NewRegistry()

	exporter, err := prometheus.New(
		prometheus.WithRegisterer(t.Registry),
		prometheus.WithoutTargetInfo(),
		prometheus.WithoutScopeInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(InstrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	t.metricsPath = cfg.MetricsPath

	return t.createInstruments()
}

func (t *Telemetry) createInstruments() error {
	metrics, err := CreatePipelineMetrics(t.Meter)
	if err != nil {
		return err
	}
	runtimeMetrics, err := NewRuntimeMetrics(t.Meter)
	if err != nil {
		return err
	}
	t.Metrics = metrics
	t.Runtime = runtimeMetrics
	return nil
}

// Shutdown writes the metrics file, flushes spans and closes the trace file
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.Registry != nil && t.metricsPath != "" {
		if err := os.MkdirAll(filepath.Dir(t.metricsPath), 0755); err != nil {
			errs = append(errs, err)
		} else if err := prom.WriteToTextfile(t.metricsPath, t.Registry); err != nil {
			errs = append(errs, fmt.Errorf("metrics dump: %w", err))
		}
	}

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if err := t.closeTraceFile(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if t.TracerProvider != nil || t.MeterProvider != nil {
		t.logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	}
	return nil
}

func (t *Telemetry) closeTraceFile() error {
	if t.traceFile == nil {
		return nil
	}
	err := t.traceFile.Close()
	t.traceFile = nil
	return err
}

// PipelineMetrics holds the instruments recorded by a pipeline run
type PipelineMetrics struct {
	RunsTotal     metric.Int64Counter
	RunDuration   metric.Float64Histogram
	StepsTotal    metric.Int64Counter
	StepDuration  metric.Float64Histogram
	Rows          metric.Int64Counter
	RowsDropped   metric.Int64Counter
	Issues        metric.Int64Counter
	FilesWritten  metric.Int64Counter
	RollbacksDone metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)

	if m.RunsTotal, err = meter.Int64Counter("pipeline_runs",
		metric.WithDescription("Pipeline runs by outcome")); err != nil {
		return nil, err
	}
	if m.RunDuration, err = meter.Float64Histogram("pipeline_run_duration",
		metric.WithDescription("Pipeline run duration"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.StepsTotal, err = meter.Int64Counter("pipeline_steps",
		metric.WithDescription("Pipeline steps executed by step and outcome")); err != nil {
		return nil, err
	}
	if m.StepDuration, err = meter.Float64Histogram("pipeline_step_duration",
		metric.WithDescription("Pipeline step duration"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.Rows, err = meter.Int64Counter("pipeline_rows",
		metric.WithDescription("Rows produced by each stage")); err != nil {
		return nil, err
	}
	if m.RowsDropped, err = meter.Int64Counter("pipeline_rows_dropped",
		metric.WithDescription("Rows removed by the cleaner by reason")); err != nil {
		return nil, err
	}
	if m.Issues, err = meter.Int64Counter("pipeline_record_issues",
		metric.WithDescription("Records that failed domain validation")); err != nil {
		return nil, err
	}
	if m.FilesWritten, err = meter.Int64Counter("pipeline_files_written",
		metric.WithDescription("Output files written by kind")); err != nil {
		return nil, err
	}
	if m.RollbacksDone, err = meter.Int64Counter("pipeline_rollbacks",
		metric.WithDescription("Step rollbacks performed after a failure")); err != nil {
		return nil, err
	}

	return &m, nil
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordRun records the outcome and duration of a whole run
func (m *PipelineMetrics) RecordRun(ctx context.Context, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(statusAttr(success))
	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records the outcome and duration of one step
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("step", stepID), statusAttr(success))
	m.StepsTotal.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRows records the row count a stage produced
func (m *PipelineMetrics) RecordRows(ctx context.Context, stage string, n int) {
	if m == nil {
		return
	}
	m.Rows.Add(ctx, int64(n), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordDropped records rows removed for a reason such as "duplicate" or "missing"
func (m *PipelineMetrics) RecordDropped(ctx context.Context, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RowsDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordIssues records records that failed validation
func (m *PipelineMetrics) RecordIssues(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Issues.Add(ctx, int64(n))
}

// RecordFile records one written output file
func (m *PipelineMetrics) RecordFile(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.FilesWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordRollback records one rolled back step
func (m *PipelineMetrics) RecordRollback(ctx context.Context, stepID string) {
	if m == nil {
		return
	}
	m.RollbacksDone.Add(ctx, 1, metric.WithAttributes(attribute.String("step", stepID)))
}

// TraceIDFromContext extracts the OpenTelemetry trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(toAttributes(attributes)...)
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
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

func toAttributes(attributes map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return attrs
}
