package inventory

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

// Kind categorises what an item is used for
type Kind string

const (
	KindFood      Kind = "food"
	KindEquipment Kind = "equipment"
	KindMaterial  Kind = "material"
)

// Slot is the equipment slot an item occupies
type Slot string

const (
	SlotHead      Slot = "head"
	SlotBody      Slot = "body"
	SlotLegs      Slot = "legs"
	SlotFeet      Slot = "feet"
	SlotHands     Slot = "hands"
	SlotAccessory Slot = "accessory"
)

// Slots lists every equipment slot in display order
var Slots = []Slot{SlotHead, SlotBody, SlotLegs, SlotFeet, SlotHands, SlotAccessory}

func (s Slot) valid() bool {
	return slices.Contains(Slots, s)
}

// Food is the nutrition profile of an edible item
type Food struct {
	Volume            float64 `json:"volume"`
	Calories          float64 `json:"calories"`
	Hydration         float64 `json:"hydration,omitempty"`
	PeristalticImpact float64 `json:"peristaltic_impact,omitempty"`
	HealthImpact      float64 `json:"health_impact,omitempty"`
	MinutesToEat      float64 `json:"minutes_to_eat"`
}

// EatEvent converts the profile into a meal for a character
func (f Food) EatEvent() vitals.EatEvent {
	return vitals.EatEvent{
		Volume:            f.Volume,
		Calories:          f.Calories,
		Hydration:         f.Hydration,
		PeristalticImpact: f.PeristalticImpact,
		HealthImpact:      f.HealthImpact,
		Duration:          vitals.EatDuration(f.MinutesToEat),
	}
}

// Item is a catalog entry
type Item struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Kind        Kind              `json:"kind"`
	Price       int               `json:"price"`
	MaxStack    int               `json:"max_stack,omitempty"`
	Slot        Slot              `json:"slot,omitempty"`
	Food        *Food             `json:"food,omitempty"`
	Modifiers   []vitals.Modifier `json:"modifiers,omitempty"`

	// Shapes are the blend shapes on the item's own mesh while worn
	Shapes []string `json:"shapes,omitempty"`
}

// StackLimit returns how many of the item fit in one inventory slot
func (it Item) StackLimit() int {
	return max(it.MaxStack, 1)
}

// Equipment converts the item's morph modifiers for a character
func (it Item) Equipment() vitals.EquipmentItem {
	return vitals.EquipmentItem{ID: it.ID, Modifiers: it.Modifiers}
}

// Validate checks that the item is internally consistent
func (it Item) Validate() error {
	var errs []error
	if it.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if it.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if it.Price < 0 {
		errs = append(errs, fmt.Errorf("price %d is negative", it.Price))
	}
	if it.MaxStack < 0 {
		errs = append(errs, fmt.Errorf("max_stack %d is negative", it.MaxStack))
	}

	switch it.Kind {
	case KindFood:
		if it.Food == nil {
			errs = append(errs, errors.New("food item needs a food profile"))
		} else {
			if it.Food.Volume < 0 {
				errs = append(errs, errors.New("food volume is negative"))
			}
			if it.Food.MinutesToEat < 0 {
				errs = append(errs, errors.New("minutes_to_eat is negative"))
			}
		}
	case KindEquipment:
		if !it.Slot.valid() {
			errs = append(errs, fmt.Errorf("invalid slot %q", it.Slot))
		}
		if it.MaxStack > 1 {
			errs = append(errs, errors.New("equipment cannot stack"))
		}
		for i, m := range it.Modifiers {
			if m.Morph == "" {
				errs = append(errs, fmt.Errorf("modifier %d has no morph", i))
			}
		}
		if slices.Contains(it.Shapes, "") {
			errs = append(errs, errors.New("blend shape names cannot be empty"))
		}
	case KindMaterial:
	default:
		errs = append(errs, fmt.Errorf("unknown kind %q", it.Kind))
	}

	if it.Kind != KindEquipment && len(it.Shapes) > 0 {
		errs = append(errs, errors.New("only equipment has blend shapes"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("item %q: %w", it.ID, err)
	}
	return nil
}
