package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/internal/config"
	"github.com/jwebster45206/vitals-engine/internal/logger"
	"github.com/jwebster45206/vitals-engine/internal/services/events"
	"github.com/jwebster45206/vitals-engine/internal/services/queue"
	"github.com/jwebster45206/vitals-engine/internal/storage"
	"github.com/jwebster45206/vitals-engine/internal/worker"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg, "worker")

	characterID, err := uuid.Parse(cfg.CharacterID)
	if err != nil {
		log.Error("CHARACTER_ID must be a UUID", "character_id", cfg.CharacterID, "error", err)
		os.Exit(1)
	}
	log = logger.WithCharacterID(log, characterID.String())

	log.Info("Starting Vitals Engine Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"time_scale", cfg.TimeScale)

	// Initialize storage service
	storageService, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storageService.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := storageService.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	catalog, err := storageService.GetCatalog(storageCtx)
	if err != nil {
		log.Error("Failed to load item catalog", "error", err)
		os.Exit(1)
	}

	rec, err := storageService.LoadCharacter(storageCtx, characterID)
	if err != nil {
		logger.WithError(log, err).Error("Failed to load character")
		os.Exit(1)
	}

	session, err := worker.NewSession(characterID, catalog, worker.SessionConfig{
		TimeScale:    cfg.TimeScale,
		Capacity:     cfg.InventoryCapacity,
		StartingGold: cfg.StartingGold,
		Vitals:       vitals.DefaultConfig(),
	}, rec, log)
	if err != nil {
		log.Error("Failed to create session", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	// Initialize queue service
	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()
	actionQueue := queue.NewActionQueue(queueClient)
	log.Info("Queue service initialized successfully")

	broadcaster := events.NewBroadcaster(storageService.Client(), log)

	w := worker.New(session, actionQueue, storageService, broadcaster, storageService.Client(), worker.Settings{
		FrameInterval: cfg.FrameInterval,
		SaveInterval:  cfg.SaveInterval,
	}, log, os.Getenv("WORKER_ID"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- w.Start()
	}()

	log.Info("Worker started, simulating character...")

	select {
	case <-quit:
		log.Info("Worker shutdown signal received")
		w.Stop()
		err = <-done
	case err = <-done:
	}

	if errors.Is(err, worker.ErrCharacterLocked) {
		log.Error("Character is already simulated elsewhere")
		os.Exit(1)
	}
	if err != nil {
		logger.WithError(log, err).Error("Worker stopped with error")
		os.Exit(1)
	}

	log.Info("Worker exited")
}
