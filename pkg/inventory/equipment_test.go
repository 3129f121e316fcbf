package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/vitals-engine/pkg/clock"
	"github.com/jwebster45206/vitals-engine/pkg/morph"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

func clockAtZero() *clock.ManualClock {
	return clock.NewManualClock(0)
}

type recordingSink struct {
	applied []string
	removed []string
}

func (r *recordingSink) ApplyEquipmentModifier(item vitals.EquipmentItem) {
	r.applied = append(r.applied, item.ID)
}

func (r *recordingSink) RemoveEquipmentModifier(item vitals.EquipmentItem) {
	r.removed = append(r.removed, item.ID)
}

func TestEquipment_EquipAndSwap(t *testing.T) {
	inv := New(testCatalog(t), 2)
	require.NoError(t, inv.Add("belt", 1))
	require.NoError(t, inv.Add("sash", 1))

	sink := &recordingSink{}
	eq := NewEquipment(sink, noopLogger)

	require.NoError(t, eq.Equip(inv, "belt"))
	assert.Zero(t, inv.Count("belt"))
	worn, ok := eq.Worn(SlotAccessory)
	require.True(t, ok)
	assert.Equal(t, "belt", worn.ID)

	require.NoError(t, eq.Equip(inv, "sash"))
	assert.Equal(t, 1, inv.Count("belt"), "swapped item returns to the bag")
	assert.Zero(t, inv.Count("sash"))
	assert.Equal(t, []string{"belt", "sash"}, sink.applied)
	assert.Equal(t, []string{"belt"}, sink.removed)
	assert.Equal(t, map[Slot]string{SlotAccessory: "sash"}, eq.Loadout())
}

func TestEquipment_Errors(t *testing.T) {
	inv := New(testCatalog(t), 2)
	require.NoError(t, inv.Add("bread", 1))
	eq := NewEquipment(&recordingSink{}, noopLogger)

	assert.ErrorIs(t, eq.Equip(inv, "bread"), ErrNotEquippable)
	assert.ErrorIs(t, eq.Equip(inv, "belt"), ErrNotEnoughItems)
	assert.ErrorIs(t, eq.Equip(inv, "pie"), ErrUnknownItem)
	assert.ErrorIs(t, eq.Unequip(inv, SlotHead), ErrSlotEmpty)
}

func TestEquipment_FailedSwapKeepsBag(t *testing.T) {
	// the worn belt comes from a catalog the bag does not know, so it cannot be stowed
	other, err := NewCatalog(Item{ID: "crown", Name: "Crown", Kind: KindEquipment, Price: 90, Slot: SlotAccessory})
	require.NoError(t, err)

	inv := New(testCatalog(t), 3)
	require.NoError(t, inv.Add("ore", 4))
	require.NoError(t, inv.Add("sash", 1))
	sink := &recordingSink{}
	eq := NewEquipment(sink, noopLogger)
	eq.Restore(other, map[Slot]string{SlotAccessory: "crown"})
	before := inv.Stacks()

	err = eq.Equip(inv, "sash")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, before, inv.Stacks())
	worn, _ := eq.Worn(SlotAccessory)
	assert.Equal(t, "crown", worn.ID)
	assert.Empty(t, sink.removed)
}

func TestEquipment_UnequipNeedsRoom(t *testing.T) {
	inv := New(testCatalog(t), 1)
	require.NoError(t, inv.Add("vest", 1))
	sink := &recordingSink{}
	eq := NewEquipment(sink, noopLogger)
	require.NoError(t, eq.Equip(inv, "vest"))

	require.NoError(t, inv.Add("ore", 1))
	err := eq.Unequip(inv, SlotBody)
	assert.ErrorIs(t, err, ErrInventoryFull)
	_, stillWorn := eq.Worn(SlotBody)
	assert.True(t, stillWorn)
	assert.Empty(t, sink.removed)

	require.NoError(t, inv.Remove("ore", 1))
	require.NoError(t, eq.Unequip(inv, SlotBody))
	assert.Equal(t, 1, inv.Count("vest"))
	assert.Equal(t, []string{"vest"}, sink.removed)
}

func TestEquipment_DrivesCharacterMorphs(t *testing.T) {
	cat := testCatalog(t)
	inv := New(cat, 2)
	require.NoError(t, inv.Add("belt", 1))

	body := morph.NewMemorySurface("body", "torso_thin", "torso_fat")
	c, err := vitals.New(vitals.DefaultConfig(), clockAtZero(), body, noopLogger)
	require.NoError(t, err)
	defer c.Close()

	eq := NewEquipment(c, noopLogger)
	require.NoError(t, eq.Equip(inv, "belt"))
	assert.Equal(t, 12.0, body.Weight("torso_thin"))

	require.NoError(t, eq.Unequip(inv, SlotAccessory))
	assert.Zero(t, body.Weight("torso_thin"))
	assert.Empty(t, c.EquippedItems())
}

func TestEquipment_Restore(t *testing.T) {
	cat := testCatalog(t)
	sink := &recordingSink{}
	eq := NewEquipment(sink, noopLogger)

	eq.Restore(cat, map[Slot]string{
		SlotAccessory: "belt",
		SlotBody:      "belt",
		SlotHead:      "pie",
	})

	assert.Equal(t, map[Slot]string{SlotAccessory: "belt"}, eq.Loadout())
	assert.Equal(t, []string{"belt"}, sink.applied)
}

func TestEquipment_WornSurfaceFollowsMorphs(t *testing.T) {
	cat, err := NewCatalog(
		Item{ID: "cinch", Name: "Cinch", Kind: KindEquipment, Price: 20, Slot: SlotAccessory,
			Modifiers: []vitals.Modifier{{Morph: "torso_thin", Value: 12}},
			Shapes:    []string{"belly_stuffed", "torso_thin"}},
		Item{ID: "belt", Name: "Belt", Kind: KindEquipment, Price: 15, Slot: SlotAccessory},
	)
	require.NoError(t, err)
	inv := New(cat, 4)
	require.NoError(t, inv.Add("cinch", 1))
	require.NoError(t, inv.Add("belt", 1))

	body := morph.NewMemorySurface("body", "belly_stuffed", "torso_thin")
	c, err := vitals.New(vitals.DefaultConfig(), clockAtZero(), body, noopLogger)
	require.NoError(t, err)
	defer c.Close()
	eq := NewEquipment(c, noopLogger)

	require.NoError(t, c.UpdateStatsOnEating(vitals.EatEvent{Volume: 300}))
	assert.InDelta(t, 20.0, body.Weight("belly_stuffed"), 1e-9)

	require.NoError(t, eq.Equip(inv, "cinch"))
	s, ok := eq.Surface(SlotAccessory)
	require.True(t, ok)
	assert.Equal(t, "cinch", s.Name())
	assert.Equal(t, []string{"belly_stuffed", "torso_thin"}, s.Shapes())
	assert.InDelta(t, 20.0, s.Weight("belly_stuffed"), 1e-9)
	assert.Equal(t, body.Weight("torso_thin"), s.Weight("torso_thin"))
	assert.InDelta(t, c.EffectiveMorph("torso_thin"), s.Weight("torso_thin"), 1e-9)

	// the worn mesh tracks later changes alongside the body
	require.NoError(t, c.UpdateStatsOnEating(vitals.EatEvent{Volume: 300}))
	assert.InDelta(t, 40.0, body.Weight("belly_stuffed"), 1e-9)
	assert.InDelta(t, 40.0, s.Weight("belly_stuffed"), 1e-9)

	// swapping to a shapeless item detaches the old mesh
	require.NoError(t, eq.Equip(inv, "belt"))
	_, ok = eq.Surface(SlotAccessory)
	assert.False(t, ok)
	assert.Empty(t, eq.Surfaces())

	require.NoError(t, c.UpdateStatsOnEating(vitals.EatEvent{Volume: 300}))
	assert.InDelta(t, 60.0, body.Weight("belly_stuffed"), 1e-9)
	assert.InDelta(t, 40.0, s.Weight("belly_stuffed"), 1e-9)
}

func TestEquipment_RestoreAttachesSurfaces(t *testing.T) {
	cat, err := NewCatalog(
		Item{ID: "cinch", Name: "Cinch", Kind: KindEquipment, Price: 20, Slot: SlotAccessory,
			Shapes: []string{"belly_stuffed"}},
	)
	require.NoError(t, err)

	body := morph.NewMemorySurface("body", "belly_stuffed")
	c, err := vitals.New(vitals.DefaultConfig(), clockAtZero(), body, noopLogger)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.UpdateStatsOnEating(vitals.EatEvent{Volume: 750}))

	eq := NewEquipment(c, noopLogger)
	eq.Restore(cat, map[Slot]string{SlotAccessory: "cinch"})

	surfaces := eq.Surfaces()
	require.Len(t, surfaces, 1)
	assert.InDelta(t, 50.0, surfaces[0].Weight("belly_stuffed"), 1e-9)
}

func TestEquipment_PlainSinkGetsNoSurfaces(t *testing.T) {
	cat, err := NewCatalog(
		Item{ID: "cinch", Name: "Cinch", Kind: KindEquipment, Price: 20, Slot: SlotAccessory,
			Shapes: []string{"belly_stuffed"}},
	)
	require.NoError(t, err)
	inv := New(cat, 1)
	require.NoError(t, inv.Add("cinch", 1))

	eq := NewEquipment(&recordingSink{}, noopLogger)
	require.NoError(t, eq.Equip(inv, "cinch"))
	assert.Empty(t, eq.Surfaces())
}
