package vitals

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/vitals-engine/pkg/clock"
	"github.com/jwebster45206/vitals-engine/pkg/morph"
	"github.com/jwebster45206/vitals-engine/pkg/sim"
	"github.com/jwebster45206/vitals-engine/pkg/transition"
)

// Character owns one character's vital state, its morph contribution table
// and registry, and the schedulers that animate both. All methods must be
// called from the simulation thread that calls Update.
type Character struct {
	cfg      Config
	state    State
	clock    clock.Clock
	logger   *slog.Logger
	notifier Notifier

	registry *morph.Registry
	table    *morph.Table
	morphTx  *transition.Scheduler
	vitalTx  *transition.Scheduler
	loop     *sim.Loop
	statIdx  statIndex

	movement  Movement
	sprinting bool

	decayEnabled bool
	hasEaten     bool
	lastMealAt   time.Duration
	armTimer     *sim.Timer
	reverts      []*pendingRevert

	equipped   map[string][]Modifier
	equipOrder []string

	raised map[Condition]bool
	closed bool
}

// New creates a character with fresh vitals from cfg and starts its periodic
// processes. body is the base mesh-deformation surface; nil disables morphs
// but the simulation still runs.
func New(cfg Config, clk clock.Clock, body morph.Surface, logger *slog.Logger) (*Character, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vitals config: %w", err)
	}
	if clk == nil {
		return nil, fmt.Errorf("clock cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Character{
		cfg:          cfg,
		clock:        clk,
		logger:       logger,
		registry:     morph.NewRegistry(body, logger),
		table:        morph.NewTable(),
		loop:         sim.NewLoop(clk, logger),
		statIdx:      newStatIndex(),
		decayEnabled: true,
		equipped:     make(map[string][]Modifier),
		raised:       make(map[Condition]bool),
	}
	c.morphTx = transition.New(clk, c.registry, logger)
	c.vitalTx = transition.New(clk, vitalChannel{c: c}, logger)

	c.state = State{
		Hydration:           cfg.StartHydration,
		Stamina:             cfg.MaxStamina,
		Health:              cfg.StartHealth,
		PeristalticVelocity: cfg.StartPeristalticVelocity,
		BaselineCalories:    cfg.BaselineCalories,
		BaselineMuscles:     cfg.BaselineMuscles,
	}
	c.state.Weight = c.weightFor(c.state.EffectiveCalories())

	c.registry.Track(cfg.MorphNames()...)
	c.refreshAllMorphs(0)
	c.startProcesses()

	return c, nil
}

// WithNotifier sets the receiver for terminal conditions
// Returns the Character for method chaining
func (c *Character) WithNotifier(n Notifier) *Character {
	c.notifier = n
	return c
}

func (c *Character) startProcesses() {
	cfg := &c.cfg
	c.loop.EveryFixed("fullness_decay", cfg.FullnessDecayInterval, c.digest)
	c.loop.EveryFixed("calorie_burn", time.Minute, c.burnCalories)
	c.loop.EveryFixed("hydration_loss", time.Minute, c.loseHydration)
	c.loop.Every("muscle_decay", func() time.Duration { return c.cfg.MuscleDecayInterval }, c.decayMuscles)
	c.loop.EveryFixed("stamina", time.Minute, c.updateStamina)
	c.loop.EveryFixed("weight_hazard", cfg.HazardCheckInterval, c.checkWeightHazard)
}

// Update advances the simulation to the clock's current time: periodic
// processes and timers first, then stat and morph transitions.
func (c *Character) Update() {
	if c.closed {
		return
	}
	c.loop.Tick()
	c.vitalTx.Tick()
	c.morphTx.Tick()
}

// Close tears the character down. Later Update calls are no-ops.
func (c *Character) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.loop.Stop()
	c.vitalTx.Clear()
	c.morphTx.Clear()
	c.logger.Debug("Character simulation stopped")
}

// State returns a copy of the current vital state
func (c *Character) State() State {
	return c.state
}

// Config returns the character's tuning
func (c *Character) Config() Config {
	return c.cfg
}

// SetMovement updates the locomotion state used by burn and drain rates
func (c *Character) SetMovement(m Movement, sprinting bool) {
	c.movement = m
	c.sprinting = sprinting && m != MovementRest
}

// Movement returns the current locomotion state
func (c *Character) Movement() (Movement, bool) {
	return c.movement, c.sprinting
}

// DecayEnabled reports whether fullness decay is armed
func (c *Character) DecayEnabled() bool {
	return c.decayEnabled
}

// Snapshot captures the character for persistence, folding session deltas
// into the calorie and muscle baselines. Eating effects still in progress are
// saved relative to the snapshot time so Restore can resume them.
func (c *Character) Snapshot() Snapshot {
	s := c.state
	now := c.clock.Now()
	snap := Snapshot{
		Fullness:            s.Fullness,
		IntestinesFullness:  s.IntestinesFullness,
		Hydration:           s.Hydration,
		Weight:              s.Weight,
		Calories:            s.EffectiveCalories(),
		Muscles:             s.EffectiveMuscles(),
		Stamina:             s.Stamina,
		Health:              s.Health,
		PeristalticVelocity: s.PeristalticVelocity,
		UrineVolume:         s.UrineVolume,
		SimTime:             now,
		HasEaten:            c.hasEaten,
	}
	for _, task := range c.vitalTx.Tasks() {
		snap.Transitions = append(snap.Transitions, StatTransition{
			Stat:      task.Key,
			To:        task.To,
			Remaining: max(task.Start+task.Duration-now, 0),
		})
	}
	for _, r := range c.reverts {
		snap.Impulses = append(snap.Impulses, PendingImpulse{
			Stat:     r.stat.String(),
			Applied:  r.applied,
			RevertIn: max(r.timer.At()-now, 0),
		})
	}
	if !c.decayEnabled && c.armTimer != nil {
		snap.DecayPaused = true
		snap.DecayArmsIn = max(c.armTimer.At()-now, 0)
	}
	if c.hasEaten {
		snap.SinceLastMeal = now - c.lastMealAt
	}
	return snap
}

// Restore replaces the vital state with a saved snapshot. It bypasses fresh
// initialization: baselines come from the snapshot and session deltas reset.
// Saved stat transitions, impulse reverts and the decay-arming delay resume
// from the clock's current time.
func (c *Character) Restore(snap Snapshot) {
	cfg := &c.cfg
	c.vitalTx.Clear()
	c.morphTx.Clear()
	c.armTimer.Cancel()
	c.armTimer = nil
	for _, r := range c.reverts {
		r.timer.Cancel()
	}
	c.reverts = nil

	c.state = State{
		Fullness:            clamp(snap.Fullness, 0, cfg.StomachCapacity),
		IntestinesFullness:  clamp(snap.IntestinesFullness, 0, cfg.IntestinesCapacity),
		Hydration:           clamp(snap.Hydration, cfg.MinHydration, cfg.MaxHydration),
		Stamina:             clamp(snap.Stamina, 0, cfg.MaxStamina),
		Health:              clamp(snap.Health, cfg.MinHealth, cfg.MaxHealth),
		PeristalticVelocity: clamp(snap.PeristalticVelocity, cfg.MinPeristalticVelocity, cfg.MaxPeristalticVelocity),
		UrineVolume:         clamp(snap.UrineVolume, 0, cfg.BladderCapacity),
		BaselineCalories:    snap.Calories,
		BaselineMuscles:     clamp(snap.Muscles, cfg.MinMuscles, cfg.MaxMuscles),
	}
	c.state.Weight = c.weightFor(c.state.EffectiveCalories())
	clear(c.raised)

	c.decayEnabled = true
	if snap.DecayPaused {
		c.armDecayAfter(snap.DecayArmsIn)
	}
	c.hasEaten = snap.HasEaten
	c.lastMealAt = c.clock.Now() - snap.SinceLastMeal

	c.refreshAllMorphs(0)

	for _, tr := range snap.Transitions {
		id, ok := c.statIdx.lookup(tr.Stat)
		if !ok {
			c.logger.Warn("Dropping saved transition for unknown stat", "stat", tr.Stat)
			continue
		}
		to := c.clampFor(id, tr.To)
		c.vitalTx.Begin(id.String(), to, tr.Remaining)
		c.pushLevelMorphs(id, to, tr.Remaining)
	}
	for _, imp := range snap.Impulses {
		id, ok := c.statIdx.lookup(imp.Stat)
		if !ok || imp.Applied == 0 {
			c.logger.Warn("Dropping saved impulse", "stat", imp.Stat, "applied", imp.Applied)
			continue
		}
		c.scheduleRevert(id, imp.Applied, imp.RevertIn)
	}

	c.logger.Info("Character restored from snapshot",
		"weight", c.state.Weight,
		"calories", c.state.EffectiveCalories(),
		"muscles", c.state.EffectiveMuscles(),
		"transitions", len(snap.Transitions),
		"impulses", len(snap.Impulses))
}

// projected returns a stat's in-flight target, or its current value
func (c *Character) projected(id StatID) float64 {
	if target, ok := c.vitalTx.Target(id.String()); ok {
		return target
	}
	return c.StatByID(id)
}

// nudge applies delta to a settable stat now and to any in-flight transition
func (c *Character) nudge(id StatID, delta float64) {
	c.vitalTx.Shift(id.String(), delta)
	c.setStat(id, c.StatByID(id)+delta)
}

// pushMorph starts a transition of name toward its effective value.
// Morphs carrying an Equipment contribution always apply instantly.
func (c *Character) pushMorph(name string, d time.Duration) {
	if _, _, ok := c.registry.Resolve(name); !ok {
		return
	}
	if c.table.Has(name, morph.CategoryEquipment) {
		d = 0
	}
	c.morphTx.Begin(name, c.table.Effective(name), d)
}

func (c *Character) setMorphs(names []string, cat morph.Category, value float64, d time.Duration) {
	for _, name := range names {
		c.table.Set(name, cat, value)
		c.pushMorph(name, d)
	}
}

// refreshAllMorphs recomputes every vitals-driven contribution
func (c *Character) refreshAllMorphs(d time.Duration) {
	s := &c.state
	c.updateWeightMorphs(d)
	c.updateMuscleMorphs(d)
	c.pushLevelMorphs(StatFullness, s.Fullness, d)
	c.pushLevelMorphs(StatIntestinesFullness, s.IntestinesFullness, d)
	c.pushLevelMorphs(StatUrineVolume, s.UrineVolume, d)
}

// MorphContribution returns name's contribution from cat (0 if none)
func (c *Character) MorphContribution(name string, cat morph.Category) float64 {
	v, _ := c.table.Contribution(name, cat)
	return v
}

// MorphContributions returns name's contribution per category
func (c *Character) MorphContributions(name string) map[morph.Category]float64 {
	return c.table.Contributions(name)
}

// EffectiveMorph returns name's clamped contribution sum
func (c *Character) EffectiveMorph(name string) float64 {
	return c.table.Effective(name)
}

// MorphNames returns every morph with at least one contribution
func (c *Character) MorphNames() []string {
	return c.table.Names()
}

// BlendShapeValue returns the rendered weight of name on its primary surface
func (c *Character) BlendShapeValue(name string) float64 {
	return c.registry.Value(name)
}

// SyncBlendShapesToRenderer attaches a newly equipped surface, rebinds every
// morph and pushes current effective values onto it.
func (c *Character) SyncBlendShapesToRenderer(s morph.Surface) {
	if s == nil {
		c.logger.Warn("Cannot sync blend shapes to nil surface")
		return
	}
	c.registry.Attach(s)
	for _, name := range c.table.Names() {
		c.registry.SetOn(s, name, c.table.Effective(name))
	}
	c.logger.Debug("Synced blend shapes to surface", "surface", s.Name())
}

// DetachRenderer removes an equipped surface and rebinds every morph
func (c *Character) DetachRenderer(s morph.Surface) {
	if s == nil {
		return
	}
	c.registry.Detach(s)
}
