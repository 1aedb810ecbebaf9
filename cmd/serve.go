package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/outplan/outplan/internal/instrumentation"
	"github.com/outplan/outplan/internal/logging"
	"github.com/outplan/outplan/internal/resources"
	"github.com/outplan/outplan/internal/search"
	"github.com/outplan/outplan/internal/server"
	"github.com/outplan/outplan/internal/store"
	"github.com/outplan/outplan/internal/tools/event_tools"
	"github.com/outplan/outplan/internal/tools/profile_tools"
	"github.com/outplan/outplan/internal/tools/team_tools"
)

// MetricsConfig controls the dedicated Prometheus listener.
type MetricsConfig struct {
	// Enabled starts the metrics listener alongside the HTTP transport.
	Enabled bool

	// Addr the metrics listener binds, e.g. ":9090".
	Addr string
}

// serveConfig holds the resolved configuration for the serve command.
type serveConfig struct {
	Transport string
	HTTPAddr  string
	DBPath    string
	IndexPath string
	Debug     bool
	Metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	var cfg serveConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing the event-planning
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport with health endpoints

Storage:
  User profiles, busy hours, teams and the events catalog live in a SQLite
  database (--db-path or OUTPLAN_DB_PATH).

Retrieval:
  When an index directory is configured (--index-path or OUTPLAN_INDEX_PATH),
  the search-backed tools (search_events, useSearch suggestion modes and
  refresh_events_catalog) become available. Without it those tools return a
  tool error and the catalog-backed tools keep working.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Environment fallbacks apply only when the flag was not set.
			if !cmd.Flags().Changed("db-path") {
				if path := os.Getenv("OUTPLAN_DB_PATH"); path != "" {
					cfg.DBPath = path
				}
			}
			if !cmd.Flags().Changed("index-path") {
				if path := os.Getenv("OUTPLAN_INDEX_PATH"); path != "" {
					cfg.IndexPath = path
				}
			}
			if !cmd.Flags().Changed("metrics-enabled") {
				if os.Getenv("METRICS_ENABLED") == "false" {
					cfg.Metrics.Enabled = false
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					cfg.Metrics.Addr = addr
				}
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&cfg.Transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&cfg.DBPath, "db-path", "outplan.db", "Path to the SQLite database file. Can also use OUTPLAN_DB_PATH env var.")
	cmd.Flags().StringVar(&cfg.IndexPath, "index-path", "", "Directory for the event search index. Empty disables retrieval. Can also use OUTPLAN_INDEX_PATH env var.")
	cmd.Flags().BoolVar(&cfg.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.Metrics.Addr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// newLogger builds the process logger. Logs always go to stderr:
// in stdio transport stdout carries the MCP protocol stream.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runServe(cfg serveConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg.Debug)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// The metrics listener only makes sense for the HTTP transport; stdio
	// servers are short-lived processes managed by the MCP client.
	var metricsServer *server.MetricsServer
	if cfg.Transport != "stdio" && cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = startMetricsServer(cfg.Metrics.Addr, provider, logger)
		if err != nil {
			return err
		}
	}

	serverContext, err := newServerContext(shutdownCtx, cfg.DBPath, cfg.IndexPath, logger)
	if err != nil {
		return err
	}

	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging))
	}
	defer func() {
		// Stop the scrape endpoint before tearing down the store and index.
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("outplan", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch cfg.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

// startMetricsServer launches the Prometheus listener and waits until the
// port is bound, so a failed bind fails startup instead of surfacing later
// as a missing scrape target.
func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:     addr,
		Provider: provider,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(ready); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
		close(failed)
	}()

	select {
	case <-ready:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-failed:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

// newServerContext opens the store (and the event index when configured)
// and wraps them in a ServerContext.
func newServerContext(ctx context.Context, dbPath, indexPath string, logger *slog.Logger) (*server.ServerContext, error) {
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dbPath, err)
	}

	opts := server.Options{Store: st}
	if indexPath != "" {
		index, err := search.NewIndex(search.Options{DataPath: indexPath, Logger: logger})
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to open event index at %s: %w", indexPath, err)
		}
		opts.Index = index
	}

	return server.NewServerContext(ctx, opts), nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools mounts every tool group and resource on the MCP server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext) error {
	groups := []struct {
		name     string
		register func(*mcpserver.MCPServer, *server.ServerContext) error
	}{
		{"profile tools", profile_tools.RegisterProfileTools},
		{"event tools", event_tools.RegisterEventTools},
		{"team tools", team_tools.RegisterTeamTools},
		{"catalog resources", resources.RegisterCatalogResources},
	}

	for _, group := range groups {
		if err := group.register(mcpSrv, ctx); err != nil {
			return fmt.Errorf("failed to register %s: %w", group.name, err)
		}
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, cfg serveConfig, logger *slog.Logger) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv)

	healthChecker := server.NewHealthChecker(serverContext)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	healthChecker.RegisterHealthEndpoints(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("streamable HTTP server starting",
		"addr", cfg.HTTPAddr,
		"mcp_endpoint", "/mcp",
		"health_endpoints", "/healthz, /readyz")
	if cfg.Metrics.Enabled {
		logger.Info("metrics endpoint available", "addr", cfg.Metrics.Addr, "path", "/metrics")
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server stopped")
	return nil
}
