package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/instrumentation"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/server"
)

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandlerPassthrough(t *testing.T) {
	sc := newTestContext(t)

	called := false
	handler := InstrumentedToolHandler("list-events", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = true
			return mcp.NewToolResultText("ok"), nil
		})

	result, err := handler(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("wrapped handler was not invoked")
	}
	if result.IsError {
		t.Error("unexpected error result")
	}
}

func TestInstrumentedToolHandlerAuditsSuccess(t *testing.T) {
	sc := newTestContext(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sc.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.AuditLoggingConfig{Enabled: true}))

	handler := InstrumentedToolHandler("list-events", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	if _, err := handler(context.Background(), toolRequest(map[string]interface{}{"account": "work"})); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "tool_executed") {
		t.Errorf("expected a tool_executed audit entry, got:\n%s", out)
	}
	if !strings.Contains(out, "list-events") {
		t.Errorf("expected the tool name in the audit entry, got:\n%s", out)
	}
}

func TestInstrumentedToolHandlerAuditsFailure(t *testing.T) {
	sc := newTestContext(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sc.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.AuditLoggingConfig{Enabled: true}))

	handler := InstrumentedToolHandler("delete-event", "delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, errors.New("boom")
		})

	if _, err := handler(context.Background(), toolRequest(nil)); err == nil {
		t.Fatal("expected the handler error to propagate")
	}

	if !strings.Contains(buf.String(), "tool_failed") {
		t.Errorf("expected a tool_failed audit entry, got:\n%s", buf.String())
	}
}

func TestInstrumentedToolHandlerErrorResult(t *testing.T) {
	sc := newTestContext(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sc.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.AuditLoggingConfig{Enabled: true}))

	handler := InstrumentedToolHandler("create-event", "create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("summary is required"), nil
		})

	result, err := handler(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected an error result")
	}

	if !strings.Contains(buf.String(), "tool_failed") {
		t.Errorf("error results should audit as failures, got:\n%s", buf.String())
	}
}
