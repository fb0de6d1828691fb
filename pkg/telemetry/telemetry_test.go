package telemetry

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "invalid log format"},
		{name: "otlp needs endpoint", mutate: func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
		}, wantErr: "requires an endpoint"},
		{name: "sampling range", mutate: func(c *Config) { c.Tracing.SamplingRate = 2 }, wantErr: "sampling rate"},
		{name: "metrics path", mutate: func(c *Config) { c.Metrics.Path = "" }, wantErr: "metrics path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.WithRunID("run-1").WithProject("demo").WithStep("create-folder").Info("step finished")

	out := buf.String()
	assert.Contains(t, out, `"run_id":"run-1"`)
	assert.Contains(t, out, `"project":"demo"`)
	assert.Contains(t, out, `"step":"create-folder"`)
	assert.Contains(t, out, `"message":"step finished"`)
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerContext(t *testing.T) {
	t.Parallel()
	logger := NewNopLogger().NewComponentLogger("pipeline")
	ctx := logger.WithContext(context.Background())

	assert.Same(t, logger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()
	m, err := NewMetrics(DefaultConfig().Metrics)
	require.NoError(t, err)

	m.RecordRunStarted()
	m.RecordStep("create-folder", "ok", 10*time.Millisecond)
	m.RecordWarning("register-apps")
	m.RecordError("execution", "NON_ZERO_EXIT")
	m.RecordRunCompleted("error", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "scaffolder_runs_started_total 1")
	assert.Contains(t, body, `scaffolder_steps_executed_total{outcome="ok",step="create-folder"} 1`)
	assert.Contains(t, body, `scaffolder_warnings_total{step="register-apps"} 1`)
	assert.Contains(t, body, `scaffolder_errors_by_code_total{code="NON_ZERO_EXIT"} 1`)
	assert.Contains(t, body, "scaffolder_active_runs 0")
}

func TestDisabledMetricsAreNoops(t *testing.T) {
	t.Parallel()
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	require.NoError(t, err)

	m.RecordRunStarted()
	m.RecordStep("x", "ok", time.Second)
	assert.Nil(t, m.Registry())

	var nilMetrics *Metrics
	nilMetrics.RecordWarning("x")
	assert.Equal(t, "/metrics", nilMetrics.Path())
}

func TestNopTracer(t *testing.T) {
	t.Parallel()
	tracer := NewNopTracer()

	ctx, span := tracer.StartRunSpan(context.Background(), "run-1", "demo")
	_, stepSpan := tracer.StartStepSpan(ctx, "create-folder", "fatal")
	RecordError(stepSpan, errors.New("boom"))
	RecordSuccess(span)
	stepSpan.End()
	span.End()

	assert.Empty(t, TraceID(context.Background()))
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestTracerWithoutExporterRecordsSpans(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig().Tracing
	cfg.Enabled = true
	cfg.Exporter = "none"

	tracer, err := NewTracer(cfg, "scaffolder", "test", "test")
	require.NoError(t, err)
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	ctx, span := tracer.StartRunSpan(context.Background(), "run-1", "demo")
	defer span.End()
	assert.Len(t, TraceID(ctx), 32)
}

func TestNewTelemetryRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Logging.Level = "nope"

	_, err := NewTelemetry(cfg)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid telemetry config"))
}
