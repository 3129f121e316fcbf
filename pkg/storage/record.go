package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/pkg/inventory"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

// CharacterRecord is everything saved for one simulated character
type CharacterRecord struct {
	ID        uuid.UUID                 `json:"id"`
	Vitals    vitals.Snapshot           `json:"vitals"`
	Movement  string                    `json:"movement,omitempty"`
	Sprinting bool                      `json:"sprinting,omitempty"`
	Inventory []inventory.Stack         `json:"inventory,omitempty"`
	Gold      int                       `json:"gold"`
	Loadout   map[inventory.Slot]string `json:"loadout,omitempty"`
	Morphs    map[string]float64        `json:"morphs,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}
