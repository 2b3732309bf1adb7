package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"student-manager/internal/app"
	"student-manager/internal/config"
	"student-manager/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogLogger := logger.NewWithServiceContext(app.ServiceName, app.Version, cfg.Env, logger.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
	})
	slog.SetDefault(slogLogger)
	slogLogger.Info("config loaded", "env", cfg.Env, "database", cfg.Database.Driver)

	application, err := app.New(context.Background(), cfg, slogLogger)
	if err != nil {
		slogLogger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := application.Run(); err != nil {
			slogLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		slogLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slogLogger.Info("server exited gracefully")
}
