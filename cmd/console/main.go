package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/internal/storage"
	"github.com/jwebster45206/vitals-engine/internal/worker"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

// ConsoleConfig controls the local simulation the dashboard runs
type ConsoleConfig struct {
	DataDir       string
	TimeScale     float64
	FrameInterval time.Duration
	StartingGold  int
	Capacity      int
	Merchants     []string
}

func main() {
	cfg := &ConsoleConfig{
		DataDir:       getEnv("DATA_DIR", "./data"),
		TimeScale:     getEnvFloat("TIME_SCALE", 60),
		FrameInterval: 100 * time.Millisecond,
		StartingGold:  int(getEnvFloat("STARTING_GOLD", 50)),
		Capacity:      int(getEnvFloat("INVENTORY_CAPACITY", 20)),
	}

	store, err := storage.NewMemoryFromDir(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", cfg.DataDir, err)
		os.Exit(1)
	}

	ctx := context.Background()
	catalog, err := store.GetCatalog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}
	if cfg.Merchants, err = store.ListMerchants(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list merchants: %v\n", err)
		os.Exit(1)
	}

	events := newFeed(500)
	log := slog.New(slog.NewTextHandler(events, &slog.HandlerOptions{Level: slog.LevelWarn}))

	session, err := worker.NewSession(uuid.New(), catalog, worker.SessionConfig{
		TimeScale:    cfg.TimeScale,
		Capacity:     cfg.Capacity,
		StartingGold: cfg.StartingGold,
		Vitals:       vitals.DefaultConfig(),
	}, nil, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create character: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	actions := &localQueue{}
	w := worker.New(session, actions, store, events, nil, worker.Settings{
		FrameInterval: cfg.FrameInterval,
		SaveInterval:  30 * time.Second,
	}, log, "console")
	defer w.Stop()

	events.add("info", fmt.Sprintf("character %s created with %d gold; type help for commands", session.ID.String()[:8], cfg.StartingGold))

	p := tea.NewProgram(NewConsoleUI(cfg, session, w, actions, events),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
