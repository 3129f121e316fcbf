package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/internal/services/queue"
	models "github.com/jwebster45206/vitals-engine/pkg/queue"
)

func main() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	characterID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	if s := os.Getenv("CHARACTER_ID"); s != "" {
		characterID = uuid.MustParse(s)
	}

	client, err := queue.NewClient(redisURL, slog.Default())
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer client.Close()

	fmt.Println("Connected to Redis successfully!")

	ctx := context.Background()
	actions := queue.NewActionQueue(client)

	buy := models.NewRequest(models.RequestTypeBuy, characterID)
	buy.MerchantID = "baker"
	buy.ItemID = "bread"
	buy.Quantity = 1

	eat := models.NewRequest(models.RequestTypeEat, characterID)
	eat.ItemID = "bread"

	smile := models.NewRequest(models.RequestTypeExpression, characterID)
	smile.Expression = "smile"
	smile.Value = 80
	smile.Minutes = 1

	for _, req := range []*models.Request{buy, eat, smile} {
		if err := actions.Enqueue(ctx, req); err != nil {
			log.Fatal("Failed to enqueue request:", err)
		}
		fmt.Printf("✅ Enqueued %s request: %s\n", req.Type, req.RequestID)
	}

	depth, err := actions.Depth(ctx, characterID)
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("\n📊 Queue depth: %d actions for %s\n", depth, characterID)
	fmt.Println("\n💡 Now start the worker to see it apply these actions!")
	fmt.Printf("   Run: CHARACTER_ID=%s go run ./cmd/worker\n", characterID)
}
