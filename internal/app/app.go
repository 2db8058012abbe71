// Package app wires configuration, storage, the reminder engine and the
// HTTP server into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gmsas95/medremind/internal/api"
	"github.com/gmsas95/medremind/internal/config"
	"github.com/gmsas95/medremind/internal/engine"
	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gmsas95/medremind/internal/logging"
	"github.com/gmsas95/medremind/internal/metrics"
	"github.com/gmsas95/medremind/internal/store"
	"go.uber.org/zap"
)

type App struct {
	Config  *config.Config
	Store   *store.Store
	Engine  *engine.Engine
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Version string
}

// New builds the engine from cfg on top of an opened store
func New(cfg *config.Config, st *store.Store, logger *zap.Logger, version string) (*App, error) {
	m := metrics.Default()
	opts, err := EngineOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, engine.WithMetrics(m))
	if st != nil {
		opts = append(opts, engine.WithRepository(st))
	}

	return &App{
		Config:  cfg,
		Store:   st,
		Engine:  engine.New(logger.Named("engine"), opts...),
		Metrics: m,
		Logger:  logger,
		Version: version,
	}, nil
}

// EngineOptions translates the engine section of the config
func EngineOptions(cfg *config.Config) ([]engine.Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return []engine.Option{
		engine.WithLocation(loc),
		engine.WithSnoozeDelay(cfg.Engine.SnoozeDelay),
		engine.WithMissThreshold(cfg.Engine.MissThreshold),
		engine.WithRefreshSchedule(cfg.Engine.RefreshSchedule),
	}, nil
}

// Bootstrap loads config, builds the logger and opens storage
func Bootstrap(configPath, dataDir, version string) (*App, error) {
	if err := config.LoadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg, err := config.Load(configPath, dataDir)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	st, err := store.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := resolveJWTSecret(cfg, st); err != nil {
		st.Close()
		return nil, err
	}

	application, err := New(cfg, st, logger, version)
	if err != nil {
		st.Close()
		return nil, err
	}
	return application, nil
}

const jwtSecretKey = "auth_jwt_secret"

// resolveJWTSecret keeps a generated signing secret stable across restarts so
// stored sessions stay valid. A configured secret is used as is.
func resolveJWTSecret(cfg *config.Config, st *store.Store) error {
	if !cfg.SecretGenerated() {
		return nil
	}

	stored, err := st.GetKV(jwtSecretKey)
	switch {
	case err == nil && len(stored) > 0:
		cfg.Auth.JWTSecret = string(stored)
		return nil
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("failed to read jwt secret: %w", err)
	}

	if err := st.SetKV(jwtSecretKey, []byte(cfg.Auth.JWTSecret)); err != nil {
		return fmt.Errorf("failed to store jwt secret: %w", err)
	}
	return nil
}

// Start loads persisted state into the engine and begins the background
// refresh. Config file edits to the snooze delay and miss threshold apply
// without a restart.
func (app *App) Start(ctx context.Context) error {
	if err := app.Engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	app.Config.OnChange(func(next *config.Config) {
		app.Engine.SetSnoozeDelay(next.Engine.SnoozeDelay)
		app.Engine.SetMissThreshold(next.Engine.MissThreshold)
		app.Logger.Info("Config reloaded",
			zap.Duration("snooze_delay", next.Engine.SnoozeDelay),
			zap.Int("miss_threshold", next.Engine.MissThreshold))
	}, func(err error) {
		app.Logger.Warn("Ignoring invalid config change", zap.Error(err))
	})
	return nil
}

// RunServer serves the API until SIGINT or SIGTERM
func (app *App) RunServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return err
	}

	server := api.New(app.Config, app.Engine, app.Store, app.Metrics, app.Logger.Named("api"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	app.Logger.Info("Server started",
		zap.String("version", app.Version),
		zap.String("address", app.Config.Server.Address),
		zap.Int("port", app.Config.Server.Port),
		zap.String("url", fmt.Sprintf("http://localhost:%d", app.Config.Server.Port)),
		zap.Int("medicines", len(app.Engine.ListMedicines())),
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	app.Logger.Info("Shutting down...")
	if err := server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}
	return nil
}

// Close stops the engine, flushing pending writes, then closes storage
func (app *App) Close() error {
	var err error
	if app.Engine != nil {
		err = app.Engine.Close()
	}
	if app.Store != nil {
		if cerr := app.Store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
	return err
}
