package inventory

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(
		Item{ID: "bread", Name: "Bread", Kind: KindFood, Price: 4, MaxStack: 3,
			Food: &Food{Volume: 250, Calories: 650, MinutesToEat: 5}},
		Item{ID: "ore", Name: "Ore", Kind: KindMaterial, Price: 8, MaxStack: 10},
		Item{ID: "belt", Name: "Belt", Kind: KindEquipment, Price: 15, Slot: SlotAccessory,
			Modifiers: []vitals.Modifier{{Morph: "torso_thin", Value: 12}}},
		Item{ID: "sash", Name: "Sash", Kind: KindEquipment, Price: 9, Slot: SlotAccessory,
			Modifiers: []vitals.Modifier{{Morph: "torso_fat", Value: 5}}},
		Item{ID: "vest", Name: "Vest", Kind: KindEquipment, Price: 40, Slot: SlotBody},
	)
	require.NoError(t, err)
	return c
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`{"items": [
		{"id": "apple", "name": "Apple", "kind": "food", "price": 1, "max_stack": 20,
		 "food": {"volume": 150, "calories": 80, "hydration": 4, "minutes_to_eat": 1.5}},
		{"id": "belt", "name": "Belt", "kind": "equipment", "price": 15, "slot": "accessory",
		 "modifiers": [{"morph": "torso_thin", "value": 12}]}
	]}`)

	c, err := ParseCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	apple, ok := c.Get("apple")
	require.True(t, ok)
	ev := apple.Food.EatEvent()
	assert.Equal(t, 150.0, ev.Volume)
	assert.Equal(t, 4.0, ev.Hydration)
	assert.Equal(t, 90*time.Second, ev.Duration)

	belt, err := c.Lookup("belt")
	require.NoError(t, err)
	assert.Equal(t, vitals.EquipmentItem{ID: "belt", Modifiers: []vitals.Modifier{{Morph: "torso_thin", Value: 12}}}, belt.Equipment())

	_, err = c.Lookup("pie")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad json", `{"items": [`},
		{"missing id", `{"items": [{"name": "X", "kind": "material"}]}`},
		{"food without profile", `{"items": [{"id": "x", "name": "X", "kind": "food"}]}`},
		{"bad slot", `{"items": [{"id": "x", "name": "X", "kind": "equipment", "slot": "tail"}]}`},
		{"stacking equipment", `{"items": [{"id": "x", "name": "X", "kind": "equipment", "slot": "head", "max_stack": 4}]}`},
		{"unknown kind", `{"items": [{"id": "x", "name": "X", "kind": "potion"}]}`},
		{"empty shape", `{"items": [{"id": "x", "name": "X", "kind": "equipment", "slot": "head", "shapes": [""]}]}`},
		{"shapes on material", `{"items": [{"id": "x", "name": "X", "kind": "material", "shapes": ["belly_stuffed"]}]}`},
		{"duplicate", `{"items": [{"id": "x", "name": "X", "kind": "material"}, {"id": "x", "name": "Y", "kind": "material"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_SampleData(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", "data", "items.json"))
	require.NoError(t, err)
	assert.Positive(t, c.Len())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items": [{"id": "ore", "name": "Ore", "kind": "material"}]}`), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []Item{{ID: "ore", Name: "Ore", Kind: KindMaterial}}, c.Items())
}

func TestInventory_AddStacks(t *testing.T) {
	inv := New(testCatalog(t), 3)

	require.NoError(t, inv.Add("bread", 2))
	require.NoError(t, inv.Add("bread", 2))
	assert.Equal(t, []Stack{{ItemID: "bread", Quantity: 3}, {ItemID: "bread", Quantity: 1}}, inv.Stacks())
	assert.Equal(t, 4, inv.Count("bread"))
	assert.Equal(t, 1, inv.FreeSlots())

	room, err := inv.Room("bread")
	require.NoError(t, err)
	assert.Equal(t, 5, room)
}

func TestInventory_AddIsAllOrNothing(t *testing.T) {
	inv := New(testCatalog(t), 2)
	require.NoError(t, inv.Add("ore", 15))

	err := inv.Add("ore", 6)
	assert.ErrorIs(t, err, ErrInventoryFull)
	assert.Equal(t, 15, inv.Count("ore"))

	assert.ErrorIs(t, inv.Add("ore", 0), ErrInvalidAmount)
	assert.ErrorIs(t, inv.Add("pie", 1), ErrUnknownItem)
}

func TestInventory_Remove(t *testing.T) {
	inv := New(testCatalog(t), 4)
	require.NoError(t, inv.Add("bread", 3))
	require.NoError(t, inv.Add("ore", 1))
	require.NoError(t, inv.Add("bread", 2))

	require.NoError(t, inv.Remove("bread", 3))
	assert.Equal(t, []Stack{{ItemID: "bread", Quantity: 2}, {ItemID: "ore", Quantity: 1}}, inv.Stacks())

	err := inv.Remove("bread", 5)
	assert.ErrorIs(t, err, ErrNotEnoughItems)
	assert.Equal(t, 2, inv.Count("bread"))
}

func TestInventory_Gold(t *testing.T) {
	inv := New(testCatalog(t), 1).WithGold(10)

	require.NoError(t, inv.SpendGold(4))
	assert.Equal(t, 6, inv.Gold())
	assert.ErrorIs(t, inv.SpendGold(7), ErrNotEnoughGold)
	assert.Equal(t, 6, inv.Gold())

	inv.AddGold(-3)
	inv.AddGold(3)
	assert.Equal(t, 9, inv.Gold())
}

func TestTransfer(t *testing.T) {
	cat := testCatalog(t)
	chest := New(cat, 5)
	bag := New(cat, 1)
	require.NoError(t, chest.Add("ore", 25))

	require.NoError(t, Transfer(chest, bag, "ore", 10))
	assert.Equal(t, 15, chest.Count("ore"))
	assert.Equal(t, 10, bag.Count("ore"))

	err := Transfer(chest, bag, "ore", 1)
	assert.ErrorIs(t, err, ErrInventoryFull)
	assert.Equal(t, 15, chest.Count("ore"), "failed transfer leaves the source untouched")

	err = Transfer(bag, chest, "ore", 11)
	assert.ErrorIs(t, err, ErrNotEnoughItems)
}

func TestInventory_Restore(t *testing.T) {
	inv := New(testCatalog(t), 2)
	require.NoError(t, inv.Add("ore", 1))

	require.NoError(t, inv.Restore([]Stack{{ItemID: "bread", Quantity: 4}}, 30))
	assert.Equal(t, 4, inv.Count("bread"))
	assert.Zero(t, inv.Count("ore"))
	assert.Equal(t, 30, inv.Gold())

	err := inv.Restore([]Stack{{ItemID: "pie", Quantity: 1}}, 0)
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, 4, inv.Count("bread"))
}

type stubEater struct {
	err   error
	meals []vitals.EatEvent
}

func (s *stubEater) UpdateStatsOnEating(ev vitals.EatEvent) error {
	if s.err != nil {
		return s.err
	}
	s.meals = append(s.meals, ev)
	return nil
}

func TestConsume(t *testing.T) {
	inv := New(testCatalog(t), 3)
	require.NoError(t, inv.Add("bread", 2))
	require.NoError(t, inv.Add("ore", 1))

	eater := &stubEater{}
	require.NoError(t, inv.Consume(eater, "bread"))
	assert.Equal(t, 1, inv.Count("bread"))
	require.Len(t, eater.meals, 1)
	assert.Equal(t, 650.0, eater.meals[0].Calories)
	assert.Equal(t, 5*time.Minute, eater.meals[0].Duration)

	assert.ErrorIs(t, inv.Consume(eater, "ore"), ErrNotEdible)
	assert.ErrorIs(t, inv.Consume(eater, "pie"), ErrUnknownItem)
}

func TestConsume_RejectedMealKeepsItem(t *testing.T) {
	inv := New(testCatalog(t), 1)
	require.NoError(t, inv.Add("bread", 1))

	full := errors.New("stomach is too full")
	err := inv.Consume(&stubEater{err: full}, "bread")
	assert.ErrorIs(t, err, full)
	assert.Equal(t, 1, inv.Count("bread"))
}

func TestConsume_WithCharacter(t *testing.T) {
	inv := New(testCatalog(t), 1)
	require.NoError(t, inv.Add("bread", 3))

	c, err := vitals.New(vitals.DefaultConfig(), clockAtZero(), nil, noopLogger)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, inv.Consume(c, "bread"))
	assert.Equal(t, 650.0, c.State().SessionConsumedCalories)
	assert.Equal(t, 2, inv.Count("bread"))
}
