// Package server wires the snipd services together and serves the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/config"
	"github.com/snipd/snipd/internal/engine"
	"github.com/snipd/snipd/internal/history"
	"github.com/snipd/snipd/internal/home"
	"github.com/snipd/snipd/internal/providers"
	"github.com/snipd/snipd/internal/server/endpoints"
	"github.com/snipd/snipd/internal/store"
	"github.com/snipd/snipd/internal/svcctx"
)

// Server is the main snipd HTTP server. It owns the SQLite store and the
// regeneration engine, opening them on start and closing them on shutdown.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	dbPath string
	home   *home.Dir
	db     *store.SQLite
	engine *engine.Engine
	gate   *engine.WaitGate

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8585)
	Port int
	// DBPath is the SQLite database file for snippets and call history
	DBPath string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the snipd home directory (optional, reported in /status)
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8585
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DBPath == "" {
		return nil, errors.New("db path is required")
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	// If config manager provided, set up providers and hot reload
	if cfg.ConfigManager != nil {
		registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())

		// Watch for config changes
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
		dbPath:    cfg.DBPath,
		home:      cfg.Home,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // waits can hold a request open
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start opens the store, builds the engine, and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("opening snippet store", "path", s.dbPath)
	db, err := store.Open(s.dbPath)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open snippet store: %w", err)
	}
	s.db = db

	calls, err := history.NewSQLiteStore(db.DB())
	if err != nil {
		_ = db.Close()
		s.setNotRunning()
		return fmt.Errorf("failed to open call history: %w", err)
	}
	recorder := history.NewRecorder(calls, s.logger)

	engCfg := engine.Config{}
	waitTimeout := engine.DefaultWaitTimeout
	if s.configMgr != nil {
		cfg := s.configMgr.Get()
		engCfg = cfg.ToEngineConfig()
		waitTimeout = cfg.WaitTimeout()
	}
	s.engine = engine.New(db, s.registry, recorder, engCfg, s.logger)
	s.gate = engine.NewWaitGate(s.engine, db, waitTimeout, s.logger)

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Store:    s.db,
		Engine:   s.engine,
		Gate:     s.gate,
		Registry: s.registry,
		Calls:    calls,
		Logger:   s.logger,
		Home:     s.home,
	}

	// Pick up anything left dirty by a previous run.
	s.engine.Trigger(ctx)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Engine returns the regeneration engine.
// Returns nil if the server hasn't started yet.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the store or engine aren't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.db == nil || s.engine == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
