package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/vitals-engine/internal/config"
	"github.com/jwebster45206/vitals-engine/internal/handlers"
	"github.com/jwebster45206/vitals-engine/internal/logger"
	"github.com/jwebster45206/vitals-engine/internal/middleware"
	"github.com/jwebster45206/vitals-engine/internal/services/events"
	"github.com/jwebster45206/vitals-engine/internal/services/queue"
	"github.com/jwebster45206/vitals-engine/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logr := logger.Setup(cfg, "api")
	logr.Info("Starting Vitals Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logger.WithError(logr, err).Error("API exited with error")
		os.Exit(1)
	}
	logr.Info("Server exited")
}

// run serves the API until ctx is cancelled, then drains open requests
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := store.WaitForConnection(waitCtx); err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("failed to create queue client: %w", err)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     newRouter(store, queueClient, log),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the events stream stays open
		IdleTimeout: 60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Server is shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func newRouter(store *storage.RedisStorage, queueClient *queue.Client, log *slog.Logger) http.Handler {
	broadcaster := events.NewBroadcaster(store.Client(), log)
	characters := handlers.NewCharacterHandler(store, queue.NewActionQueue(queueClient), log).
		WithEvents(broadcaster)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log).WithQueue(queueClient))
	mux.Handle("/v1/characters", characters)
	mux.Handle("/v1/characters/", characters)
	mux.Handle("/v1/events/characters/", handlers.NewEventsHandler(store.Client(), log))

	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recover(log),
	)
}
