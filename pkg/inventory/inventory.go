package inventory

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

var (
	ErrInventoryFull  = errors.New("inventory is full")
	ErrNotEnoughItems = errors.New("not enough items")
	ErrNotEnoughGold  = errors.New("not enough gold")
	ErrNotEdible      = errors.New("item is not edible")
	ErrInvalidAmount  = errors.New("quantity must be positive")
)

// Stack is a quantity of one item occupying a single inventory slot
type Stack struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Inventory is a slot-limited bag of item stacks plus a gold purse
type Inventory struct {
	catalog  *Catalog
	capacity int
	stacks   []Stack
	gold     int
}

// New creates an empty inventory with capacity slots
func New(catalog *Catalog, capacity int) *Inventory {
	return &Inventory{catalog: catalog, capacity: max(capacity, 0)}
}

// WithGold sets the starting purse
// Returns the Inventory for method chaining
func (inv *Inventory) WithGold(gold int) *Inventory {
	inv.gold = max(gold, 0)
	return inv
}

// Catalog returns the item definitions the inventory resolves against
func (inv *Inventory) Catalog() *Catalog {
	return inv.catalog
}

// Capacity returns the number of slots
func (inv *Inventory) Capacity() int {
	return inv.capacity
}

// FreeSlots returns the number of unused slots
func (inv *Inventory) FreeSlots() int {
	return inv.capacity - len(inv.stacks)
}

// Stacks returns a copy of the occupied slots in order
func (inv *Inventory) Stacks() []Stack {
	return slices.Clone(inv.stacks)
}

// Count returns the total quantity of an item across stacks
func (inv *Inventory) Count(id string) int {
	n := 0
	for _, s := range inv.stacks {
		if s.ItemID == id {
			n += s.Quantity
		}
	}
	return n
}

// Room returns how many more of an item fit
func (inv *Inventory) Room(id string) (int, error) {
	it, err := inv.catalog.Lookup(id)
	if err != nil {
		return 0, err
	}
	limit := it.StackLimit()
	room := inv.FreeSlots() * limit
	for _, s := range inv.stacks {
		if s.ItemID == id {
			room += limit - s.Quantity
		}
	}
	return room, nil
}

// Add puts qty of an item into the inventory, topping up existing stacks
// first. Nothing is added unless all of it fits.
func (inv *Inventory) Add(id string, qty int) error {
	if qty <= 0 {
		return ErrInvalidAmount
	}
	room, err := inv.Room(id)
	if err != nil {
		return err
	}
	if room < qty {
		return fmt.Errorf("%w: room for %d of %s, need %d", ErrInventoryFull, room, id, qty)
	}

	it, _ := inv.catalog.Get(id)
	limit := it.StackLimit()
	for i := range inv.stacks {
		if qty == 0 {
			break
		}
		s := &inv.stacks[i]
		if s.ItemID != id || s.Quantity >= limit {
			continue
		}
		n := min(limit-s.Quantity, qty)
		s.Quantity += n
		qty -= n
	}
	for qty > 0 {
		n := min(limit, qty)
		inv.stacks = append(inv.stacks, Stack{ItemID: id, Quantity: n})
		qty -= n
	}
	return nil
}

// Remove takes qty of an item out, draining the last stacks first.
// Nothing is removed unless enough is held.
func (inv *Inventory) Remove(id string, qty int) error {
	if qty <= 0 {
		return ErrInvalidAmount
	}
	if have := inv.Count(id); have < qty {
		return fmt.Errorf("%w: have %d of %s, need %d", ErrNotEnoughItems, have, id, qty)
	}
	for i := len(inv.stacks) - 1; i >= 0 && qty > 0; i-- {
		s := &inv.stacks[i]
		if s.ItemID != id {
			continue
		}
		n := min(s.Quantity, qty)
		s.Quantity -= n
		qty -= n
	}
	inv.stacks = slices.DeleteFunc(inv.stacks, func(s Stack) bool { return s.Quantity == 0 })
	return nil
}

// Gold returns the purse
func (inv *Inventory) Gold() int {
	return inv.gold
}

// AddGold adds to the purse
func (inv *Inventory) AddGold(n int) {
	if n > 0 {
		inv.gold += n
	}
}

// SpendGold takes n from the purse, failing if it holds less
func (inv *Inventory) SpendGold(n int) error {
	if n < 0 {
		return ErrInvalidAmount
	}
	if inv.gold < n {
		return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughGold, inv.gold, n)
	}
	inv.gold -= n
	return nil
}

// Transfer moves qty of an item from one inventory to another. Both sides
// are checked before either changes.
func Transfer(from, to *Inventory, id string, qty int) error {
	if qty <= 0 {
		return ErrInvalidAmount
	}
	if have := from.Count(id); have < qty {
		return fmt.Errorf("%w: have %d of %s, need %d", ErrNotEnoughItems, have, id, qty)
	}
	room, err := to.Room(id)
	if err != nil {
		return err
	}
	if room < qty {
		return fmt.Errorf("%w: room for %d of %s, need %d", ErrInventoryFull, room, id, qty)
	}
	if err := from.Remove(id, qty); err != nil {
		return err
	}
	return to.Add(id, qty)
}

// Eater accepts meals. A rejected meal returns an error.
type Eater interface {
	UpdateStatsOnEating(ev vitals.EatEvent) error
}

// Consume feeds one of an item to e. The item is used up only if the meal
// is accepted.
func (inv *Inventory) Consume(e Eater, id string) error {
	it, err := inv.catalog.Lookup(id)
	if err != nil {
		return err
	}
	if it.Kind != KindFood || it.Food == nil {
		return fmt.Errorf("%w: %s", ErrNotEdible, id)
	}
	if inv.Count(id) < 1 {
		return fmt.Errorf("%w: %s", ErrNotEnoughItems, id)
	}
	if err := e.UpdateStatsOnEating(it.Food.EatEvent()); err != nil {
		return fmt.Errorf("failed to eat %s: %w", id, err)
	}
	return inv.Remove(id, 1)
}

// Restore replaces the contents with saved stacks. An unknown item or an
// overflow fails the whole restore and leaves the inventory unchanged.
func (inv *Inventory) Restore(stacks []Stack, gold int) error {
	restored := New(inv.catalog, inv.capacity)
	for _, s := range stacks {
		if err := restored.Add(s.ItemID, s.Quantity); err != nil {
			return fmt.Errorf("failed to restore %s: %w", s.ItemID, err)
		}
	}
	inv.stacks = restored.stacks
	inv.gold = max(gold, 0)
	return nil
}
