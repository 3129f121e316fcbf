package storage

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/pkg/inventory"
	"github.com/jwebster45206/vitals-engine/pkg/trade"
)

// MemoryStorage keeps everything in process. Tests and the local console use it.
type MemoryStorage struct {
	mu         sync.RWMutex
	characters map[uuid.UUID]*CharacterRecord
	catalog    *inventory.Catalog
	merchants  map[string]*trade.MerchantSpec
	pingError  error
	saveError  error
}

// Ensure MemoryStorage implements Storage interface
var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		characters: make(map[uuid.UUID]*CharacterRecord),
		merchants:  make(map[string]*trade.MerchantSpec),
	}
}

// SetPingSuccess makes the store succeed on ping
func (m *MemoryStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError makes the store fail on ping with the given error
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes the store fail every SaveCharacter call
func (m *MemoryStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping returns the configured ping error
func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close is a no-op
func (m *MemoryStorage) Close() error {
	return nil
}

// SaveCharacter stores a copy of rec
func (m *MemoryStorage) SaveCharacter(ctx context.Context, id uuid.UUID, rec *CharacterRecord) error {
	if rec == nil {
		return errors.New("character record cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	cp := *rec
	cp.Inventory = slices.Clone(rec.Inventory)
	cp.Loadout = maps.Clone(rec.Loadout)
	cp.Morphs = maps.Clone(rec.Morphs)
	m.characters[id] = &cp
	return nil
}

// LoadCharacter returns a copy of the stored record
func (m *MemoryStorage) LoadCharacter(ctx context.Context, id uuid.UUID) (*CharacterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, exists := m.characters[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	cp := *rec
	return &cp, nil
}

// DeleteCharacter removes a record
func (m *MemoryStorage) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.characters, id)
	return nil
}

// ListCharacters returns saved character IDs in no particular order
func (m *MemoryStorage) ListCharacters(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Collect(maps.Keys(m.characters)), nil
}

// GetCatalog returns the catalog set with SetCatalog
func (m *MemoryStorage) GetCatalog(ctx context.Context) (*inventory.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog == nil {
		return nil, errors.New("catalog not found")
	}
	return m.catalog, nil
}

// SetCatalog sets the item catalog
func (m *MemoryStorage) SetCatalog(c *inventory.Catalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = c
}

// GetMerchantSpec returns a registered merchant spec
func (m *MemoryStorage) GetMerchantSpec(ctx context.Context, merchantID string) (*trade.MerchantSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, exists := m.merchants[merchantID]
	if !exists {
		return nil, errors.New("merchant spec not found")
	}
	return spec, nil
}

// ListMerchants returns registered merchant IDs, sorted
func (m *MemoryStorage) ListMerchants(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := slices.Collect(maps.Keys(m.merchants))
	slices.Sort(ids)
	return ids, nil
}

// AddMerchantSpec registers a merchant spec
func (m *MemoryStorage) AddMerchantSpec(spec *trade.MerchantSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merchants[spec.ID] = spec
}
