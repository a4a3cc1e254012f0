package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stubwire/stubwire/pkg/config"
	"github.com/stubwire/stubwire/pkg/contract"
	"github.com/stubwire/stubwire/pkg/logging"
	"github.com/stubwire/stubwire/pkg/requestlog"
	"github.com/stubwire/stubwire/pkg/scenario"
	"github.com/stubwire/stubwire/pkg/store"
)

// Server wires the contract store, scenario registry, engine, handler, and
// admin API into a runnable HTTP server pair: stub traffic on the main port,
// the admin API (and metrics) on the admin port.
type Server struct {
	cfg     *config.ServerConfig
	engine  *Engine
	handler *Handler
	admin   *AdminAPI
	history requestlog.Store
	log     *slog.Logger

	httpServer  *http.Server
	adminServer *http.Server
	mu          sync.RWMutex
	running     bool
	startTime   time.Time
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithHistory sets the request history store.
func WithHistory(history requestlog.Store) ServerOption {
	return func(s *Server) {
		s.history = history
	}
}

// NewServer builds a Server from loaded contracts. The contract set is
// validated during store load; a ConfigError here means the server must not
// start.
func NewServer(cfg *config.ServerConfig, contracts []*contract.Contract, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg: cfg,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = requestlog.NewMemoryStore(cfg.MaxRequestEntries)
	}

	contractStore := store.NewContractStore(s.log)
	if err := contractStore.Load(contracts); err != nil {
		return nil, err
	}

	s.engine = New(contractStore, scenario.NewRegistry(), s.log)
	s.engine.SetTransitionRetries(cfg.TransitionRetries)

	s.handler = NewHandler(s.engine)
	s.handler.SetLogger(s.log)
	s.handler.SetHistory(s.history)
	s.handler.SetMaxBodyBytes(cfg.MaxBodyBytes)

	s.admin = NewAdminAPI(s.engine, s.history)
	s.handler.SetAdmin(s.admin)

	return s, nil
}

// Engine returns the server's engine.
func (s *Server) Engine() *Engine {
	return s.engine
}

// Handler returns the stub traffic handler. Useful for tests that drive the
// server through httptest instead of a real listener.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Admin returns the admin API handler.
func (s *Server) Admin() http.Handler {
	return s.admin
}

// Start begins serving on the configured ports. It returns once both
// listeners are running; serve errors after startup are logged.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSec) * time.Second,
	}
	s.adminServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.AdminPort),
		Handler:      s.admin,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSec) * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("stub server stopped", "error", err)
		}
	}()
	go func() {
		if err := s.adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("admin server stopped", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	s.log.Info("server started",
		"port", s.cfg.Port,
		"admin_port", s.cfg.AdminPort,
		"contracts", s.engine.Store().Count(),
		"scenarios", len(s.engine.Scenarios().Names()),
	)
	return nil
}

// Stop gracefully shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	var firstErr error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := s.adminServer.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	s.running = false
	s.log.Info("server stopped")
	return firstErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns seconds since Start, or 0 when not running.
func (s *Server) Uptime() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}
