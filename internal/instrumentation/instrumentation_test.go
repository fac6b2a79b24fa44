package instrumentation

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.MetricsExporter = "graphite"
	require.Error(t, cfg.Validate())

	cfg.MetricsExporter = ExporterOTLP
	cfg.OTLPEndpoint = ""
	require.Error(t, cfg.Validate())

	cfg.OTLPEndpoint = "localhost:4318"
	require.NoError(t, cfg.Validate())
}

func TestDisabledProviderIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	require.NotNil(t, p.Metrics())

	// Recording on the no-op metrics must not panic.
	p.Metrics().RecordToolInvocation(context.Background(), "list-events", StatusSuccess, "default", time.Second)
	p.Metrics().RecordBatchCall(context.Background(), 5, StatusSuccess)
	require.NoError(t, p.Shutdown(context.Background()))
}

func collectMetricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordToolInvocation(ctx, "list-events", StatusSuccess, "default", 120*time.Millisecond)
	m.RecordAPIOperation(ctx, "list", StatusSuccess, 80*time.Millisecond)
	m.RecordBatchCall(ctx, 7, StatusSuccess)
	m.RecordBatchRetry(ctx)
	m.RecordScopedUpdate(ctx, "thisAndFollowing", StatusSuccess)

	names := collectMetricNames(t, reader)
	for _, want := range []string{
		"mcp_tool_invocations_total",
		"mcp_tool_duration_seconds",
		"calendar_api_operations_total",
		"calendar_batch_calls_total",
		"calendar_batch_size",
		"calendar_batch_retries_total",
		"calendar_scoped_updates_total",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}

func TestToolInvocationLifecycle(t *testing.T) {
	ti := NewToolInvocation("update-event").
		WithAccount("work").
		WithOperation("update").
		WithUser("someone@example.com")

	ti.CompleteSuccess()
	assert.True(t, ti.Success)
	assert.Equal(t, StatusSuccess, ti.Status())
	assert.Equal(t, "example.com", ti.UserDomain())

	attrs := ti.LogAttrs()
	var keys []string
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}
	assert.Contains(t, keys, "user_domain")
	assert.NotContains(t, keys, "user")
}

func TestAuditLoggerRedactsPIIByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	al := NewAuditLogger(logger)
	ti := NewToolInvocation("list-events").WithUser("someone@example.com").CompleteSuccess()
	al.LogToolInvocation(ti)

	out := buf.String()
	assert.Contains(t, out, "tool_executed")
	assert.Contains(t, out, "example.com")
	assert.NotContains(t, out, "someone@example.com")
}

func TestAuditLoggerIncludesPIIWhenConfigured(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true, IncludePII: true})
	ti := NewToolInvocation("delete-event").WithUser("someone@example.com").CompleteWithError(assertErr("denied"))
	al.LogToolInvocation(ti)

	out := buf.String()
	assert.Contains(t, out, "tool_failed")
	assert.Contains(t, out, "someone@example.com")
	assert.Contains(t, out, "denied")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestAuditLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation("list-events").CompleteSuccess())

	assert.Equal(t, "", strings.TrimSpace(buf.String()))
}
