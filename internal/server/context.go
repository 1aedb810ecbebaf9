package server

import (
	"context"
	"sync"

	"github.com/outplan/outplan/internal/instrumentation"
	"github.com/outplan/outplan/internal/interval"
	"github.com/outplan/outplan/internal/match"
	"github.com/outplan/outplan/internal/search"
	"github.com/outplan/outplan/internal/store"
)

// ServerContext holds the shared state for the MCP server: the store, the
// event index, the matching planner and optional instrumentation.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	store  *store.Store
	index  *search.Index
	window interval.Window

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// Options configures a ServerContext.
type Options struct {
	Store  *store.Store
	Index  *search.Index    // optional; retrieval tools fail gracefully without it
	Window *interval.Window // defaults to the standard day window
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, opts Options) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	window := interval.DefaultWindow()
	if opts.Window != nil {
		window = *opts.Window
	}

	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		store:  opts.Store,
		index:  opts.Index,
		window: window,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Store returns the persistence layer.
func (sc *ServerContext) Store() *store.Store {
	return sc.store
}

// Index returns the event search index, or nil if retrieval is disabled.
func (sc *ServerContext) Index() *search.Index {
	return sc.index
}

// Window returns the day window used for availability derivation.
func (sc *ServerContext) Window() interval.Window {
	return sc.window
}

// Planner builds a matching planner over the context's collaborators.
func (sc *ServerContext) Planner() *match.Planner {
	p := &match.Planner{
		Busy:    sc.store,
		Prefs:   sc.store,
		Catalog: sc.store,
		Window:  sc.window,
	}
	if sc.index != nil {
		p.Retriever = sc.index
	}
	return p
}

// Metrics returns the metrics recorder, or nil if instrumentation is not
// configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
}

// AuditLogger returns the audit logger, or nil if not configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(logger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = logger
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and closes the collaborators.
// Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()

	var firstErr error
	if sc.index != nil {
		if err := sc.index.Close(); err != nil {
			firstErr = err
		}
	}
	if sc.store != nil {
		if err := sc.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
