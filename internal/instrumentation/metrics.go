package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrOperation = "operation"
	attrStatus    = "status"
	attrTool      = "tool"
	attrAccount   = "account"
	attrScope     = "scope"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Calendar API metrics
	apiOperationsTotal   metric.Int64Counter
	apiOperationDuration metric.Float64Histogram

	// Batch engine metrics
	batchCallsTotal   metric.Int64Counter
	batchSize         metric.Int64Histogram
	batchRetriesTotal metric.Int64Counter

	// Recurring update metrics
	scopedUpdatesTotal metric.Int64Counter

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.apiOperationsTotal, err = meter.Int64Counter(
		"calendar_api_operations_total",
		metric.WithDescription("Total number of Calendar API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operations_total counter: %w", err)
	}

	m.apiOperationDuration, err = meter.Float64Histogram(
		"calendar_api_operation_duration_seconds",
		metric.WithDescription("Calendar API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operation_duration_seconds histogram: %w", err)
	}

	m.batchCallsTotal, err = meter.Int64Counter(
		"calendar_batch_calls_total",
		metric.WithDescription("Total number of batch endpoint calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_batch_calls_total counter: %w", err)
	}

	m.batchSize, err = meter.Int64Histogram(
		"calendar_batch_size",
		metric.WithDescription("Number of sub-requests per batch call"),
		metric.WithUnit("{request}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 30, 40, 50),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_batch_size histogram: %w", err)
	}

	m.batchRetriesTotal, err = meter.Int64Counter(
		"calendar_batch_retries_total",
		metric.WithDescription("Total number of whole-batch retries"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_batch_retries_total counter: %w", err)
	}

	m.scopedUpdatesTotal, err = meter.Int64Counter(
		"calendar_scoped_updates_total",
		metric.WithDescription("Total number of scoped recurring-event updates"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_scoped_updates_total counter: %w", err)
	}

	return m, nil
}

// RecordToolInvocation records an MCP tool invocation with tool name, status,
// and duration. The account label is only added when detailed labels are
// enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAPIOperation records a Calendar API operation.
//
// Parameters:
//   - operation: operation type (list, get, insert, patch, delete, freebusy, batch)
//   - status: "success" or "error"
//   - duration: time taken for the operation
func (m *Metrics) RecordAPIOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m.apiOperationsTotal == nil || m.apiOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.apiOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.apiOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordBatchCall records one batch endpoint call with its sub-request count.
func (m *Metrics) RecordBatchCall(ctx context.Context, size int, status string) {
	if m.batchCallsTotal == nil || m.batchSize == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{attribute.String(attrStatus, status)}
	m.batchCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.batchSize.Record(ctx, int64(size), metric.WithAttributes(attrs...))
}

// RecordBatchRetry records one whole-batch retry.
func (m *Metrics) RecordBatchRetry(ctx context.Context) {
	if m.batchRetriesTotal == nil {
		return // Instrumentation not initialized
	}
	m.batchRetriesTotal.Add(ctx, 1)
}

// RecordScopedUpdate records a scoped recurring-event update by scope and
// status.
func (m *Metrics) RecordScopedUpdate(ctx context.Context, scope, status string) {
	if m.scopedUpdatesTotal == nil {
		return // Instrumentation not initialized
	}

	m.scopedUpdatesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrScope, scope),
		attribute.String(attrStatus, status),
	))
}
