// Package internal wires configuration, storage, jobs and the HTTP server
// into one application.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"reportlens/internal/config"
	"reportlens/internal/database"
	"reportlens/internal/jobs"
	"reportlens/internal/logging"
	"reportlens/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Application holds the long-lived components shared by every command.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Analyzer  *pipeline.Analyzer
	Scheduler *jobs.Scheduler
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config. The
// archive database is opened and migrated.
func NewAppWithConfig(cfg *config.Config, opts ...pipeline.Option) (*Application, error) {
	logger := logging.NewLogger(logging.FromAppConfig(cfg))
	dbPath := cfg.GetDatabasePath()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	analyzer, err := pipeline.NewAnalyzer(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Analyzer:  analyzer,
		Scheduler: jobs.NewScheduler(dbManager, analyzer, cfg, logger),
	}, nil
}

// Server returns the HTTP API bound to this application.
func (a *Application) Server() *fiber.App {
	return NewServer(a.Config, a.DBManager, a.Analyzer, a.Logger)
}

// Serve runs the HTTP API and the background jobs until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}
	defer a.Scheduler.Stop()

	app := a.Server()
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting HTTP server", slog.String("port", a.Config.GetPort()))
		errCh <- app.Listen(":" + a.Config.GetPort())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info("Shutting down HTTP server")
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}

// Watch runs only the background jobs until ctx is done.
func (a *Application) Watch(ctx context.Context) error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	a.Scheduler.Stop()
	return nil
}
