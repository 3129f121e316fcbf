package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/pkg/inventory"
	"github.com/jwebster45206/vitals-engine/pkg/trade"
)

// Storage defines a unified interface for all storage operations
// This interface combines character persistence (Redis) with resource loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Character operations (Redis-backed)
	SaveCharacter(ctx context.Context, id uuid.UUID, rec *CharacterRecord) error
	LoadCharacter(ctx context.Context, id uuid.UUID) (*CharacterRecord, error)
	DeleteCharacter(ctx context.Context, id uuid.UUID) error
	ListCharacters(ctx context.Context) ([]uuid.UUID, error)

	// Item catalog (filesystem-backed)
	GetCatalog(ctx context.Context) (*inventory.Catalog, error)

	// Merchant operations (filesystem-backed, returns MerchantSpec not Merchant)
	// Use trade.NewMerchant to stock the runtime merchant from the returned spec
	GetMerchantSpec(ctx context.Context, merchantID string) (*trade.MerchantSpec, error)
	ListMerchants(ctx context.Context) ([]string, error)
}
