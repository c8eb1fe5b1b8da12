package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazar/internal/config"
	"bazar/internal/database"
	"bazar/internal/logger"
	"bazar/internal/server"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan<- error) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close prepared statements and the database
	err := apiServer.Close()
	if err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- err
}

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(logger.Options{
		Env:        cfg.Server.Env,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger, using defaults: %v\n", err)
		log = logger.NewWithDefaults()
	}
	defer log.Sync()

	log.Info("Starting bazar API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Initialize database
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return 1
	}

	// Check database health
	health := dbService.Health(context.Background())
	log.Info("Database health check", zap.Any("health", health))

	// Run migrations
	if err := database.RunMigrations(dbService.DB(), dbService.Dialect(), log); err != nil {
		log.Error("Failed to run migrations", zap.Error(err))
		dbService.Close()
		return 1
	}
	version, err := database.MigrationVersion(dbService.DB(), dbService.Dialect())
	if err != nil {
		log.Warn("Could not read migration version", zap.Error(err))
	}
	log.Info("Database migrations completed successfully", zap.Int64("version", version))

	// Create server
	srv, err := server.NewServer(context.Background(), cfg, log, dbService)
	if err != nil {
		log.Error("Failed to create server", zap.Error(err))
		dbService.Close()
		return 1
	}

	// Create a done channel to signal when the shutdown is complete
	done := make(chan error, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Error("HTTP server error", zap.Error(err))
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("Error closing server resources", zap.Error(closeErr))
		}
		return 1
	}

	// Wait for the graceful shutdown to complete
	if err := <-done; err != nil {
		return 1
	}
	log.Info("Graceful shutdown complete")
	return 0
}
