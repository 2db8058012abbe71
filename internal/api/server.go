// Package api serves the reminder engine over HTTP and WebSocket.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gmsas95/medremind/internal/config"
	"github.com/gmsas95/medremind/internal/engine"
	"github.com/gmsas95/medremind/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionStore keeps the logged-in user record
type SessionStore interface {
	SetSession(key string, value []byte, ttl time.Duration) error
	GetSession(key string) ([]byte, error)
	DeleteSession(key string) error
}

// Server handles HTTP API and WebSocket
type Server struct {
	app      *fiber.App
	config   *config.Config
	engine   *engine.Engine
	sessions SessionStore
	metrics  *metrics.Metrics
	validate *validator.Validate
	limiter  *ipLimiter
	logger   *zap.Logger
}

// New creates a new API server
func New(cfg *config.Config, eng *engine.Engine, sessions SessionStore, m *metrics.Metrics, logger *zap.Logger) *Server {
	if m == nil {
		m = metrics.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "medremind",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	s := &Server{
		app:      app,
		config:   cfg,
		engine:   eng,
		sessions: sessions,
		metrics:  m,
		validate: validator.New(),
		limiter:  newIPLimiter(cfg.Security.RateLimit, cfg.Security.RateBurst),
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

// App exposes the fiber app, used by tests
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
