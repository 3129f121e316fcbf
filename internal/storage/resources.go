package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/vitals-engine/pkg/inventory"
	"github.com/jwebster45206/vitals-engine/pkg/storage"
	"github.com/jwebster45206/vitals-engine/pkg/trade"
)

// Item catalog (filesystem-backed)

func (r *RedisStorage) GetCatalog(ctx context.Context) (*inventory.Catalog, error) {
	return LoadCatalog(r.dataDir)
}

// LoadCatalog reads dataDir/items.json
func LoadCatalog(dataDir string) (*inventory.Catalog, error) {
	return inventory.LoadCatalog(filepath.Join(dataDir, "items.json"))
}

// Merchant operations (filesystem-backed, returns MerchantSpec only)

func (r *RedisStorage) GetMerchantSpec(ctx context.Context, merchantID string) (*trade.MerchantSpec, error) {
	return LoadMerchantSpec(r.dataDir, merchantID)
}

func (r *RedisStorage) ListMerchants(ctx context.Context) ([]string, error) {
	return ListMerchantIDs(r.dataDir)
}

// LoadMerchantSpec reads dataDir/merchants/<merchantID>.json
func LoadMerchantSpec(dataDir, merchantID string) (*trade.MerchantSpec, error) {
	path := filepath.Join(dataDir, "merchants", merchantID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("merchant not found: %s", merchantID)
		}
		return nil, fmt.Errorf("failed to read merchant file %s: %w", path, err)
	}

	var spec trade.MerchantSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse merchant JSON from %s: %w", path, err)
	}

	// Filename overrides any ID in the JSON
	spec.ID = merchantID
	return &spec, nil
}

// ListMerchantIDs returns the merchant file names under dataDir, sorted
func ListMerchantIDs(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dataDir, "merchants"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read merchants directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// NewMemoryFromDir loads dataDir's catalog and merchants into an in-memory store
func NewMemoryFromDir(dataDir string) (*storage.MemoryStorage, error) {
	catalog, err := LoadCatalog(dataDir)
	if err != nil {
		return nil, err
	}
	ids, err := ListMerchantIDs(dataDir)
	if err != nil {
		return nil, err
	}

	mem := storage.NewMemoryStorage()
	mem.SetCatalog(catalog)
	for _, id := range ids {
		spec, err := LoadMerchantSpec(dataDir, id)
		if err != nil {
			return nil, err
		}
		mem.AddMerchantSpec(spec)
	}
	return mem, nil
}
