package app

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"integration-gateway/internal/common/logging"
	"integration-gateway/internal/config"
	"integration-gateway/internal/server"
)

// Run is the main entry point for the application
func Run() error {
	// A missing .env file is fine; the environment may already be set
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logging.InitGlobalLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	defer logging.MustSync()

	logging.Info("Starting integration gateway",
		logging.Int("cpus", runtime.NumCPU()),
		logging.String("broker", cfg.BrokerType),
		logging.String("cache", cfg.CacheType),
	)

	if err := cfg.Validate(); err != nil {
		logging.Error("Configuration validation failed", err)
		return err
	}

	app, err := New(cfg)
	if err != nil {
		logging.Error("Failed to initialize application", err)
		return err
	}
	defer app.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		logging.Error("Failed to start worker", err)
		return err
	}

	srv := server.New(app.Handler(), ":"+cfg.Port)
	if err := srv.Start(); err != nil {
		logging.Error("Server failed to start", err)
		return err
	}

	select {
	case <-ctx.Done():
		logging.Info("Shutting down server...")
	case err := <-srv.Errors():
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server forced to shutdown", err)
		return err
	}

	if err := app.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Error during app shutdown", logging.Err(err))
	}

	logging.Info("Server exited")
	return nil
}
