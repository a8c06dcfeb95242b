package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmdbcli/internal/config"
	"tmdbcli/internal/shared/testutil"
)

func enabledTelemetryConfig(t *testing.T) config.TelemetryConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default().Telemetry
	cfg.Enabled = true
	cfg.TracePath = filepath.Join(dir, "trace.json")
	cfg.MetricsPath = filepath.Join(dir, "metrics", "run.prom")
	return cfg
}

func TestInitializeTelemetry_Disabled(t *testing.T) {
	tel, err := InitializeTelemetry(config.Default().Telemetry, nil)
	require.NoError(t, err)

	assert.Nil(t, tel.TracerProvider)
	assert.Nil(t, tel.MeterProvider)
	require.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.Metrics)

	ctx, span := tel.Tracer.Start(context.Background(), "noop")
	tel.Metrics.RecordRows(ctx, "load", 10)
	span.End()
	assert.Empty(t, TraceIDFromContext(ctx))

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestInitializeTelemetry_WritesTraceAndMetrics(t *testing.T) {
	cfg := enabledTelemetryConfig(t)
	logger, handler := testutil.NewTestLogger(t)

	tel, err := InitializeTelemetry(cfg, logger)
	require.NoError(t, err)

	ctx, span := tel.Tracer.Start(context.Background(), "pipeline.load")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	SetSpanAttributes(ctx, map[string]interface{}{"rows": 3, "path": "movies.csv"})
	AddSpanEvent(ctx, "loaded", map[string]interface{}{"columns": int64(21)})
	RecordError(ctx, errors.New("boom"))
	span.End()

	tel.Metrics.RecordRows(ctx, "load", 3)
	tel.Metrics.RecordDropped(ctx, "duplicate", 1)
	tel.Metrics.RecordStep(ctx, "load", 20*time.Millisecond, true)
	tel.Metrics.RecordRun(ctx, time.Second, false)
	tel.Runtime.Record(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tel.Shutdown(shutdownCtx))

	trace, err := os.ReadFile(cfg.TracePath)
	require.NoError(t, err)
	assert.Contains(t, string(trace), "pipeline.load")
	assert.Contains(t, string(trace), "boom")

	metrics, err := os.ReadFile(cfg.MetricsPath)
	require.NoError(t, err)
	text := string(metrics)
	assert.Contains(t, text, "pipeline_rows_total")
	assert.Contains(t, text, `stage="load"`)
	assert.Contains(t, text, "pipeline_rows_dropped_total")
	assert.Contains(t, text, "pipeline_step_duration_seconds")
	assert.Contains(t, text, "runtime_heap_alloc")
	assert.True(t, strings.Contains(text, `status="failure"`))

	assert.True(t, handler.ContainsMessage("OpenTelemetry shutdown complete"))
}

func TestInitializeTelemetry_WithoutFiles(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Enabled = true

	tel, err := InitializeTelemetry(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, tel.Registry)

	tel.Metrics.RecordFile(context.Background(), "csv")

	families, err := tel.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "pipeline_files_written_total")

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestInitializeTelemetry_BadTracePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	cfg := config.Default().Telemetry
	cfg.Enabled = true
	cfg.TracePath = filepath.Join(blocker, "trace.json")

	_, err := InitializeTelemetry(cfg, nil)
	assert.Error(t, err)
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordRun(ctx, time.Second, true)
		m.RecordStep(ctx, "load", time.Second, true)
		m.RecordRows(ctx, "load", 1)
		m.RecordDropped(ctx, "missing", 1)
		m.RecordIssues(ctx, 1)
		m.RecordFile(ctx, "csv")
		m.RecordRollback(ctx, "export")
	})
}

func TestRuntimeMetrics_Record(t *testing.T) {
	var rm *RuntimeMetrics
	stats := rm.Record(context.Background())
	assert.NotZero(t, stats.HeapAlloc)
}
