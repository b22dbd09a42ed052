// Package api provides the diagnostic HTTP REST API for Quartz Core.
//
// It exposes the loaded automation rules, the raw rule document, the entity
// registry, and system health to operators and provisioning tools.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/quartzhome/quartz-core/internal/entity"
	"github.com/quartzhome/quartz-core/internal/infrastructure/config"
	"github.com/quartzhome/quartz-core/internal/infrastructure/database"
	"github.com/quartzhome/quartz-core/internal/infrastructure/logging"
	"github.com/quartzhome/quartz-core/internal/infrastructure/mqtt"
	"github.com/quartzhome/quartz-core/internal/rules"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Rules    *rules.Service
	Entities *entity.Registry
	DB       *database.DB // optional: enables the database health probe
	MQTT     *mqtt.Client // optional: enables the broker health probe
	Version  string
}

// Server is the HTTP API server for Quartz Core.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	rules    *rules.Service
	entities *entity.Registry
	db       *database.DB
	mqtt     *mqtt.Client
	version  string
	server   *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, rules service, registry)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Rules == nil {
		return nil, fmt.Errorf("rules service is required")
	}
	if deps.Entities == nil {
		return nil, fmt.Errorf("entity registry is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		rules:    deps.Rules,
		entities: deps.Entities,
		db:       deps.DB,
		mqtt:     deps.MQTT,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The HTTP listener runs in a background goroutine; the server can be
// stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
