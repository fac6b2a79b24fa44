package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/instrumentation"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with metrics and audit
// logging. The operation argument names the Calendar operation type (list,
// get, create, update, delete) for the API operation metric; it may be empty
// for tools that never reach the API.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("list-events", "list", sc, handler))
func InstrumentedToolHandler(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName)
		if operation != "" {
			invocation.WithOperation(operation)
		}

		account := GetAccountFromArgs(request.GetArguments())
		invocation.WithAccount(account)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			if err != nil {
				invocation.CompleteWithError(err)
			} else {
				invocation.Complete(false, nil)
			}
		} else {
			invocation.CompleteSuccess()
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, account, duration)
			if operation != "" {
				metrics.RecordAPIOperation(ctx, operation, status, duration)
			}
		}

		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
