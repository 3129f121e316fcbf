package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jwebster45206/vitals-engine/pkg/morph"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

var (
	ErrNotEquippable = errors.New("item is not equippable")
	ErrSlotEmpty     = errors.New("slot is empty")
)

// ModifierSink receives morph modifiers as items are worn and taken off
type ModifierSink interface {
	ApplyEquipmentModifier(item vitals.EquipmentItem)
	RemoveEquipmentModifier(item vitals.EquipmentItem)
}

// RendererSink receives the meshes of worn items that carry blend shapes
type RendererSink interface {
	SyncBlendShapesToRenderer(s morph.Surface)
	DetachRenderer(s morph.Surface)
}

// Equipment tracks the item worn in each slot and keeps the sink's
// equipment modifiers in step with it. When the sink is also a
// RendererSink, items with shapes get a surface while worn.
type Equipment struct {
	sink     ModifierSink
	renderer RendererSink
	worn     map[Slot]Item
	surfaces map[Slot]*morph.MemorySurface
	logger   *slog.Logger
}

// NewEquipment creates an empty loadout feeding sink
func NewEquipment(sink ModifierSink, logger *slog.Logger) *Equipment {
	if logger == nil {
		logger = slog.Default()
	}
	renderer, _ := sink.(RendererSink)
	return &Equipment{
		sink:     sink,
		renderer: renderer,
		worn:     make(map[Slot]Item),
		surfaces: make(map[Slot]*morph.MemorySurface),
		logger:   logger,
	}
}

// putOn wears it. Modifiers go first so a new surface picks them up on sync.
func (e *Equipment) putOn(it Item) {
	e.worn[it.Slot] = it
	e.sink.ApplyEquipmentModifier(it.Equipment())
	if e.renderer == nil || len(it.Shapes) == 0 {
		return
	}
	s := morph.NewMemorySurface(it.ID, it.Shapes...)
	e.surfaces[it.Slot] = s
	e.renderer.SyncBlendShapesToRenderer(s)
}

// takeOff clears slot, dropping its modifiers and surface
func (e *Equipment) takeOff(slot Slot) {
	it, ok := e.worn[slot]
	if !ok {
		return
	}
	if s, ok := e.surfaces[slot]; ok {
		e.renderer.DetachRenderer(s)
		delete(e.surfaces, slot)
	}
	delete(e.worn, slot)
	e.sink.RemoveEquipmentModifier(it.Equipment())
}

// Equip moves an item from inv into its slot. Whatever was in the slot goes
// back into inv.
func (e *Equipment) Equip(inv *Inventory, id string) error {
	it, err := inv.Catalog().Lookup(id)
	if err != nil {
		return err
	}
	if it.Kind != KindEquipment {
		return fmt.Errorf("%w: %s", ErrNotEquippable, id)
	}
	// a failed swap leaves the bag exactly as it was
	before := slices.Clone(inv.stacks)
	if err := inv.Remove(id, 1); err != nil {
		return err
	}

	if old, ok := e.worn[it.Slot]; ok {
		if err := inv.Add(old.ID, 1); err != nil {
			inv.stacks = before
			return fmt.Errorf("failed to stow %s: %w", old.ID, err)
		}
		e.takeOff(old.Slot)
	}

	e.putOn(it)
	e.logger.Debug("Item equipped", "item", id, "slot", it.Slot)
	return nil
}

// Unequip moves the item in slot back into inv
func (e *Equipment) Unequip(inv *Inventory, slot Slot) error {
	it, ok := e.worn[slot]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSlotEmpty, slot)
	}
	if err := inv.Add(it.ID, 1); err != nil {
		return fmt.Errorf("failed to unequip %s: %w", it.ID, err)
	}
	e.takeOff(slot)
	e.logger.Debug("Item unequipped", "item", it.ID, "slot", slot)
	return nil
}

// Worn returns the item in slot
func (e *Equipment) Worn(slot Slot) (Item, bool) {
	it, ok := e.worn[slot]
	return it, ok
}

// Surface returns the mesh of the item worn in slot, if it has one
func (e *Equipment) Surface(slot Slot) (*morph.MemorySurface, bool) {
	s, ok := e.surfaces[slot]
	return s, ok
}

// Surfaces returns the worn meshes in slot order
func (e *Equipment) Surfaces() []*morph.MemorySurface {
	var out []*morph.MemorySurface
	for _, slot := range Slots {
		if s, ok := e.surfaces[slot]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Loadout returns the worn item ID per slot
func (e *Equipment) Loadout() map[Slot]string {
	out := make(map[Slot]string, len(e.worn))
	for slot, it := range e.worn {
		out[slot] = it.ID
	}
	return out
}

// Restore puts a saved loadout back on without touching any inventory.
// Unknown IDs and slot mismatches are skipped with a warning.
func (e *Equipment) Restore(catalog *Catalog, loadout map[Slot]string) {
	for _, slot := range Slots {
		id, ok := loadout[slot]
		if !ok {
			continue
		}
		it, found := catalog.Get(id)
		if !found || it.Kind != KindEquipment || it.Slot != slot {
			e.logger.Warn("Skipping saved equipment", "item", id, "slot", slot)
			continue
		}
		e.takeOff(slot)
		e.putOn(it)
	}
}
