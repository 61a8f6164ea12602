package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeTelemetry(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{TraceExporter: "none", EnableMetrics: true}, testLogger())
	require.NoError(t, err)
	require.NotNil(t, tel)

	assert.Nil(t, tel.TracerProvider)
	assert.NotNil(t, tel.Tracer)
	assert.NotNil(t, tel.MeterProvider)
	assert.NotNil(t, tel.Metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, tel.Shutdown(ctx))
}

func TestInitializeTelemetry_UnsupportedExporter(t *testing.T) {
	_, err := InitializeTelemetry(config.TelemetryConfig{TraceExporter: "jaeger"}, testLogger())
	require.Error(t, err)
}

func TestWriteMetrics(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{TraceExporter: "none", EnableMetrics: true}, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	ctx := context.Background()
	ctx, span := tel.StartStage(ctx, "load")
	tel.RecordRows(ctx, "load", OutcomeKept, 8)
	tel.RecordRows(ctx, "load", OutcomeDropped, 2)
	tel.RecordRows(ctx, "load", OutcomeDropped, 0)
	tel.RecordStage(ctx, span, "load", 150*time.Millisecond, nil)

	_, span = tel.StartStage(ctx, "fit")
	tel.RecordDraws(ctx, "price_model", 4000)
	tel.RecordStage(ctx, span, "fit", time.Second, errors.New("boom"))

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, tel.WriteMetrics(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "sales_rows_total")
	assert.Contains(t, text, `outcome="dropped"`)
	assert.Contains(t, text, "pipeline_stage_duration")
	assert.Contains(t, text, "pipeline_stage_errors_total")
	assert.Contains(t, text, "sampler_draws_total")
}

func TestWriteMetrics_Disabled(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{TraceExporter: "none"}, testLogger())
	require.NoError(t, err)

	// no-op instruments must accept writes
	tel.RecordRows(context.Background(), "load", OutcomeKept, 3)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, tel.WriteMetrics(path))
	assert.NoFileExists(t, path)
}

func TestSpanHelpersWithoutRecordingSpan(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "event", map[string]any{"rows": 3, "ok": true})
		SetSpanAttributes(ctx, map[string]any{"stage": "impute", "r2": 0.4, "n": int64(2), "x": []int{1}})
	})
	assert.Len(t, toAttributes(map[string]any{"a": 1, "b": "x", "c": struct{}{}}), 3)
}
