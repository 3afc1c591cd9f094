// Package api provides the admin HTTP server for the tutils daemon.
//
// It exposes health and metrics endpoints for the database wrapper and the
// optional MQTT and InfluxDB integrations. There is no data access over HTTP.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/TBye101/TUtils/internal/infrastructure/config"
	"github.com/TBye101/TUtils/internal/infrastructure/metrics"
	"github.com/TBye101/TUtils/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Database is the part of the database wrapper the server reports on.
// *database.SQLiteWrapper satisfies it.
type Database interface {
	Ping(ctx context.Context) error
	Stats() sql.DBStats
	Path() string
}

// ConnectionReporter reports whether an optional integration is connected.
// *mqtt.Client satisfies it.
type ConnectionReporter interface {
	IsConnected() bool
}

// HealthChecker actively checks an optional integration.
// *influxdb.Client satisfies it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Database Database

	// Optional integrations; nil means disabled.
	MQTT     ConnectionReporter
	InfluxDB HealthChecker
	Metrics  *metrics.Collector

	Version string
}

// Server is the admin HTTP server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	db        Database
	mqtt      ConnectionReporter
	influx    HealthChecker
	metrics   *metrics.Collector
	version   string
	startTime time.Time

	healthTimeout time.Duration

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Database == nil {
		return nil, fmt.Errorf("database is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		db:        deps.Database,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		metrics:   deps.Metrics,
		version:   deps.Version,
		startTime: time.Now(),

		healthTimeout: defaultHealthTimeout,
	}, nil
}

// Start binds the listener and serves in a background goroutine.
// Binding happens before Start returns, so a port in use is reported here.
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("binding API listener on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("API server starting", "address", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
