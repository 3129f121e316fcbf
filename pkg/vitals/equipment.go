package vitals

import (
	"slices"

	"github.com/jwebster45206/vitals-engine/pkg/morph"
)

// Modifier is one morph offset carried by a piece of equipment
type Modifier struct {
	Morph string  `json:"morph"`
	Value float64 `json:"value"`
}

// EquipmentItem groups the modifiers applied while an item is worn
type EquipmentItem struct {
	ID        string     `json:"id"`
	Modifiers []Modifier `json:"modifiers"`
}

// ApplyEquipmentModifier records item's modifiers and applies them instantly.
// Re-applying an item with the same ID replaces its earlier modifiers.
func (c *Character) ApplyEquipmentModifier(item EquipmentItem) {
	if item.ID == "" {
		c.logger.Warn("Ignoring equipment without an ID")
		return
	}
	affected := c.equippedMorphs(item.ID)
	if _, ok := c.equipped[item.ID]; !ok {
		c.equipOrder = append(c.equipOrder, item.ID)
	}
	c.equipped[item.ID] = slices.Clone(item.Modifiers)
	for _, m := range item.Modifiers {
		affected = append(affected, m.Morph)
	}
	c.refreshEquipment(affected)
	c.logger.Debug("Equipment applied", "item", item.ID, "modifiers", len(item.Modifiers))
}

// RemoveEquipmentModifier drops item's modifiers. Morphs return to exactly
// the value they had before the item was applied.
func (c *Character) RemoveEquipmentModifier(item EquipmentItem) {
	if _, ok := c.equipped[item.ID]; !ok {
		c.logger.Debug("Equipment not applied, nothing to remove", "item", item.ID)
		return
	}
	affected := c.equippedMorphs(item.ID)
	delete(c.equipped, item.ID)
	c.equipOrder = slices.DeleteFunc(c.equipOrder, func(id string) bool { return id == item.ID })
	c.refreshEquipment(affected)
	c.logger.Debug("Equipment removed", "item", item.ID)
}

// EquippedItems returns the applied item IDs in application order
func (c *Character) EquippedItems() []string {
	return slices.Clone(c.equipOrder)
}

func (c *Character) equippedMorphs(id string) []string {
	var names []string
	for _, m := range c.equipped[id] {
		names = append(names, m.Morph)
	}
	return names
}

// refreshEquipment re-sums the Equipment contribution of each named morph
// over every applied item and pushes the result with no interpolation.
func (c *Character) refreshEquipment(names []string) {
	slices.Sort(names)
	for _, name := range slices.Compact(names) {
		if name == "" {
			continue
		}
		var sum float64
		found := false
		for _, id := range c.equipOrder {
			for _, m := range c.equipped[id] {
				if m.Morph == name {
					sum += m.Value
					found = true
				}
			}
		}
		if found {
			c.table.Set(name, morph.CategoryEquipment, sum)
		} else {
			c.table.Delete(name, morph.CategoryEquipment)
		}
		c.pushMorph(name, 0)
	}
}
