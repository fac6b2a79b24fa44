package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/calendar"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/instrumentation"
)

// ServerContext holds the context for the MCP server.
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	calendarClients map[string]*calendar.Client // account name to Calendar client
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger
	readOnly        bool
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a new server context. The default account's
// Calendar client is created eagerly when a token is available; other
// accounts are initialized lazily on first use.
func NewServerContext(ctx context.Context, readOnly bool) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	calendarClients := make(map[string]*calendar.Client)

	if calendar.HasTokenForAccount("default") {
		client, err := calendar.NewClientForAccount(shutdownCtx, "default")
		if err != nil {
			// Re-attempted on first use.
			slog.Warn("failed to create Calendar client for default account", "error", err)
		} else {
			calendarClients["default"] = client
		}
	}

	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		calendarClients: calendarClients,
		readOnly:        readOnly,
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// ReadOnly reports whether mutating tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// CalendarClientForAccount returns the Calendar client for a specific
// account, creating and caching it on first use. Returns nil if the account
// has no stored token.
func (sc *ServerContext) CalendarClientForAccount(account string) *calendar.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.calendarClients[account]; ok {
		return client
	}

	if !calendar.HasTokenForAccount(account) {
		return nil
	}

	client, err := calendar.NewClientForAccount(sc.ctx, account)
	if err != nil {
		slog.Warn("failed to create Calendar client", "account", account, "error", err)
		return nil
	}

	if sc.metrics != nil {
		client.SetMetrics(sc.metrics)
	}
	sc.calendarClients[account] = client
	return client
}

// CalendarClient returns the Calendar client for the default account.
func (sc *ServerContext) CalendarClient() *calendar.Client {
	return sc.CalendarClientForAccount("default")
}

// SetCalendarClientForAccount sets the Calendar client for a specific account.
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.metrics != nil {
		client.SetMetrics(sc.metrics)
	}
	sc.calendarClients[account] = client
}

// DropCalendarClientForAccount removes a cached client, forcing a rebuild on
// the next use. Called after re-authorization.
func (sc *ServerContext) DropCalendarClientForAccount(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.calendarClients, account)
}

// SetMetrics sets the metrics recorder and attaches it to any clients that
// were created before instrumentation was wired up.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
	if metrics != nil {
		for _, client := range sc.calendarClients {
			client.SetMetrics(metrics)
		}
	}
}

// Metrics returns the metrics recorder, which may be nil when
// instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
