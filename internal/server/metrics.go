package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/outplan/outplan/internal/instrumentation"
)

// DefaultMetricsAddr is where the metrics server binds when no address is
// configured.
const DefaultMetricsAddr = ":9090"

const (
	metricsReadHeaderTimeout = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsIdleTimeout       = 60 * time.Second
)

// MetricsServerConfig configures the standalone metrics listener.
type MetricsServerConfig struct {
	// Addr to bind, e.g. ":9090". Defaults to DefaultMetricsAddr.
	Addr string

	// Provider must be an enabled instrumentation provider; its prometheus
	// exporter feeds the default registry that /metrics serves.
	Provider *instrumentation.Provider

	// Logger for startup and shutdown messages. Defaults to slog.Default.
	Logger *slog.Logger
}

// MetricsServer exposes Prometheus metrics on its own port, keeping
// operational data off the MCP listener.
type MetricsServer struct {
	addr       string
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
}

// NewMetricsServer validates the configuration and returns an unstarted
// server.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Provider == nil {
		return nil, errors.New("metrics server requires an instrumentation provider")
	}
	if !config.Provider.Enabled() {
		return nil, errors.New("metrics server requires instrumentation to be enabled")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MetricsServer{addr: addr, logger: logger}, nil
}

// Start binds the listener and blocks serving requests. Run it in a
// goroutine for non-blocking use.
func (s *MetricsServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal binds the listener, closes ready, and then blocks
// serving requests. Callers use the channel to confirm the port was bound
// before reporting the server as up.
func (s *MetricsServer) StartWithReadySignal(ready chan<- struct{}) error {
	mux := http.NewServeMux()
	// The OTel prometheus exporter registers with the default registry,
	// which promhttp.Handler serves.
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	s.logger.Info("starting metrics server", "addr", listener.Addr().String())
	if ready != nil {
		close(ready)
	}
	return s.httpServer.Serve(listener)
}

// Shutdown stops the server, waiting for in-flight scrapes up to the context
// deadline. Safe to call before Start.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound listener address once started, otherwise the
// configured address. With ":0" the bound address carries the real port.
func (s *MetricsServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
