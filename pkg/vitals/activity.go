package vitals

import (
	"time"

	"github.com/jwebster45206/vitals-engine/pkg/morph"
)

// muscleNeutral is the muscle tone that produces no gain or loss morph
const muscleNeutral = 50.0

// weightCoefficient scales hydration loss from 0.5 at minimum weight to 2.0 at maximum
func (c *Character) weightCoefficient() float64 {
	return 0.5 + 1.5*percentBetween(c.state.Weight, c.cfg.MinWeight, c.cfg.MaxWeight)/100
}

// loseHydration is the per-minute hydration step. At minimum hydration the
// character takes dehydration damage instead.
func (c *Character) loseHydration() {
	cfg := &c.cfg
	if loss := cfg.HydrationLoss.For(c.movement) * c.weightCoefficient(); loss > 0 {
		c.nudge(StatHydration, -loss)
	}
	if c.state.Hydration <= cfg.MinHydration && cfg.DehydrationDamagePerMinute > 0 {
		c.nudge(StatHealth, -cfg.DehydrationDamagePerMinute)
	}
}

// updateStamina drains stamina while moving and regenerates it at rest
func (c *Character) updateStamina() {
	cfg := &c.cfg
	s := &c.state
	if c.movement == MovementRest {
		if cfg.StaminaRegenPerMinute > 0 {
			c.setStat(StatStamina, s.Stamina+cfg.StaminaRegenPerMinute)
		}
		return
	}
	ratio := s.Weight / cfg.StartWeight
	drain := cfg.StaminaDrainBase * ratio * ratio
	if c.sprinting {
		drain *= cfg.SprintMultiplier
	}
	c.setStat(StatStamina, s.Stamina-drain)
}

// decayMuscles is the periodic muscle tone decay step
func (c *Character) decayMuscles() {
	cfg := &c.cfg
	s := &c.state
	if s.EffectiveMuscles() <= cfg.MinMuscles {
		return
	}
	s.SessionDecreasedMuscles += cfg.MuscleDecayPerTick
	if under := cfg.MinMuscles - s.EffectiveMuscles(); under > 0 {
		s.SessionDecreasedMuscles -= under
	}
	c.updateMuscleMorphs(cfg.MorphUpdateDuration)
}

// Exercise adds session muscle tone, capped at the maximum
func (c *Character) Exercise(amount float64) {
	if amount <= 0 {
		return
	}
	cfg := &c.cfg
	s := &c.state
	s.SessionIncreasedMuscles += amount
	if over := s.EffectiveMuscles() - cfg.MaxMuscles; over > 0 {
		s.SessionIncreasedMuscles -= over
	}
	c.updateMuscleMorphs(cfg.MorphUpdateDuration)
}

// musclePercents maps muscle tone above neutral onto gain and below onto loss
func (c *Character) musclePercents() (gain, loss float64) {
	m := c.state.EffectiveMuscles()
	switch {
	case m > muscleNeutral:
		gain = percentBetween(m, muscleNeutral, c.cfg.MaxMuscles)
	case m < muscleNeutral:
		loss = percentBetween(m, muscleNeutral, c.cfg.MinMuscles)
	}
	return gain, loss
}

func (c *Character) updateMuscleMorphs(d time.Duration) {
	gain, loss := c.musclePercents()
	c.setMorphs(c.cfg.MuscleGainMorphs, morph.CategoryMuscles, gain, d)
	c.setMorphs(c.cfg.MuscleLossMorphs, morph.CategoryMusclesLoss, loss, d)
}
