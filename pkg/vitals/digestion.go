package vitals

import (
	"errors"
	"slices"
	"time"

	"github.com/jwebster45206/vitals-engine/pkg/clock"
	"github.com/jwebster45206/vitals-engine/pkg/morph"
	"github.com/jwebster45206/vitals-engine/pkg/sim"
)

var (
	// ErrStomachFull rejects a meal that would overfill the stomach
	ErrStomachFull = errors.New("stomach is too full")
	// ErrHydrationTooLow rejects a meal that would push hydration below its minimum
	ErrHydrationTooLow = errors.New("hydration would fall below minimum")
)

// EatEvent describes one resolved eat action. Duration is simulated time.
type EatEvent struct {
	Volume            float64
	Calories          float64
	Hydration         float64
	PeristalticImpact float64
	HealthImpact      float64
	Duration          time.Duration
}

// UpdateStatsOnEating applies a meal. Fullness and hydration move toward their
// new targets over ev.Duration; peristaltic velocity and health get an impulse
// that ramps in, holds, and ramps back out. A rejected meal mutates nothing.
func (c *Character) UpdateStatsOnEating(ev EatEvent) error {
	cfg := &c.cfg

	fullness := c.projected(StatFullness)
	if ev.Volume > 0 && fullness+ev.Volume > cfg.StomachCapacity {
		c.logger.Info("Meal rejected, stomach too full",
			"fullness", fullness,
			"volume", ev.Volume,
			"capacity", cfg.StomachCapacity)
		return ErrStomachFull
	}
	hydration := c.projected(StatHydration)
	if hydration+ev.Hydration < cfg.MinHydration {
		c.logger.Info("Meal rejected, hydration would drop below minimum",
			"hydration", hydration,
			"delta", ev.Hydration)
		return ErrHydrationTooLow
	}

	c.trackMealSession()

	if ev.Calories != 0 {
		c.state.SessionConsumedCalories += ev.Calories
		c.recomputeWeight()
	}

	targetFullness := clamp(fullness+ev.Volume, 0, cfg.StomachCapacity)
	c.vitalTx.Begin(StatFullness.String(), targetFullness, ev.Duration)
	c.pushLevelMorphs(StatFullness, targetFullness, ev.Duration)

	if ev.Hydration != 0 {
		targetHydration := clamp(hydration+ev.Hydration, cfg.MinHydration, cfg.MaxHydration)
		c.vitalTx.Begin(StatHydration.String(), targetHydration, ev.Duration)
	}

	if ev.Hydration > 0 && cfg.UrinePerHydration > 0 {
		targetUrine := clamp(c.projected(StatUrineVolume)+ev.Hydration*cfg.UrinePerHydration, 0, cfg.BladderCapacity)
		c.vitalTx.Begin(StatUrineVolume.String(), targetUrine, ev.Duration)
		c.pushLevelMorphs(StatUrineVolume, targetUrine, ev.Duration)
	}

	c.impulse(StatPeristalticVelocity, ev.PeristalticImpact)
	c.impulse(StatHealth, ev.HealthImpact)

	c.logger.Debug("Meal applied",
		"volume", ev.Volume,
		"calories", ev.Calories,
		"hydration", ev.Hydration,
		"duration", ev.Duration,
		"weight", c.state.Weight)
	return nil
}

// trackMealSession restarts the decay-arming timer when this meal opens a new
// session. Meals closer together than MealSessionGap share a session.
func (c *Character) trackMealSession() {
	now := c.clock.Now()
	if !c.hasEaten || now-c.lastMealAt >= c.cfg.MealSessionGap {
		c.armDecayAfter(c.cfg.DecayArmDelay)
		c.logger.Debug("New meal session started", "sim_time", now)
	}
	c.hasEaten = true
	c.lastMealAt = now
}

// armDecayAfter pauses fullness decay and re-enables it after d
func (c *Character) armDecayAfter(d time.Duration) {
	c.decayEnabled = false
	c.armTimer.Cancel()
	c.armTimer = c.loop.After(d, func() {
		c.decayEnabled = true
		c.logger.Debug("Fullness decay armed")
	})
}

// pendingRevert is the ramp-out half of an impulse
type pendingRevert struct {
	stat    StatID
	applied float64
	timer   *sim.Timer
}

// impulse ramps a stat by delta, holds it, then ramps the same amount back
func (c *Character) impulse(id StatID, delta float64) {
	if delta == 0 {
		return
	}
	from := c.projected(id)
	target := c.clampFor(id, from+delta)
	applied := target - from
	if applied == 0 {
		return
	}
	c.vitalTx.Begin(id.String(), target, c.cfg.ImpulseDuration)
	c.scheduleRevert(id, applied, c.cfg.ImpulseDuration+c.cfg.ImpulseHold)
}

// scheduleRevert takes applied back off id, starting after d
func (c *Character) scheduleRevert(id StatID, applied float64, d time.Duration) {
	r := &pendingRevert{stat: id, applied: applied}
	r.timer = c.loop.After(d, func() {
		c.vitalTx.Begin(id.String(), c.clampFor(id, c.projected(id)-applied), c.cfg.ImpulseDuration)
		c.dropRevert(r)
	})
	c.reverts = append(c.reverts, r)
}

func (c *Character) dropRevert(r *pendingRevert) {
	if i := slices.Index(c.reverts, r); i >= 0 {
		c.reverts = slices.Delete(c.reverts, i, i+1)
	}
}

// pushLevelMorphs moves the morphs that mirror a stat's fill level toward level over d
func (c *Character) pushLevelMorphs(id StatID, level float64, d time.Duration) {
	cfg := &c.cfg
	switch id {
	case StatFullness:
		c.setMorphs(cfg.FullnessMorphs, morph.CategoryFullness, percentBetween(level, 0, cfg.StomachCapacity), d)
	case StatIntestinesFullness:
		c.setMorphs(cfg.IntestinesMorphs, morph.CategoryIntestinesFullness, percentBetween(level, 0, cfg.IntestinesCapacity), d)
	case StatUrineVolume:
		c.setMorphs(cfg.UrineMorphs, morph.CategoryUrineVolume, percentBetween(level, 0, cfg.BladderCapacity), d)
	}
}

// clampFor clamps v to the bounds of a settable stat
func (c *Character) clampFor(id StatID, v float64) float64 {
	cfg := &c.cfg
	switch id {
	case StatHealth:
		return clamp(v, cfg.MinHealth, cfg.MaxHealth)
	case StatPeristalticVelocity:
		return clamp(v, cfg.MinPeristalticVelocity, cfg.MaxPeristalticVelocity)
	case StatHydration:
		return clamp(v, cfg.MinHydration, cfg.MaxHydration)
	case StatFullness:
		return clamp(v, 0, cfg.StomachCapacity)
	}
	return v
}

// digest is the fullness decay step. It moves stomach contents into the
// intestines at a rate scaled by peristaltic velocity.
func (c *Character) digest() {
	cfg := &c.cfg
	s := &c.state
	if !c.decayEnabled || s.IntestinesFullness >= cfg.IntestinesCapacity {
		return
	}
	if c.vitalTx.Active(StatFullness.String()) {
		return
	}

	minutes := cfg.FullnessDecayInterval.Minutes()
	decrease := (cfg.FullnessDecreasePerHour / 60) * (s.PeristalticVelocity / 100) * minutes
	actual := min(decrease, s.Fullness)
	if actual <= 0 {
		return
	}

	c.setStat(StatFullness, s.Fullness-actual)
	c.nudge(StatIntestinesFullness, actual*cfg.IntestinesTransferRatio)

	c.pushLevelMorphs(StatFullness, s.Fullness, cfg.FullnessDecayInterval)
	c.pushLevelMorphs(StatIntestinesFullness, s.IntestinesFullness, cfg.FullnessDecayInterval)
}

// Urinate empties the bladder over ReliefDuration
func (c *Character) Urinate() {
	d := c.cfg.ReliefDuration
	c.vitalTx.Begin(StatUrineVolume.String(), 0, d)
	c.pushLevelMorphs(StatUrineVolume, 0, d)
}

// Defecate empties the intestines over ReliefDuration
func (c *Character) Defecate() {
	d := c.cfg.ReliefDuration
	c.vitalTx.Begin(StatIntestinesFullness.String(), 0, d)
	c.pushLevelMorphs(StatIntestinesFullness, 0, d)
}

// EatDuration converts an item's time-to-eat in simulated minutes
func EatDuration(minutes float64) time.Duration {
	return clock.Minutes(minutes)
}
