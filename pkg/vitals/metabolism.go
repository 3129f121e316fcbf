package vitals

import (
	"time"

	"github.com/jwebster45206/vitals-engine/pkg/morph"
)

// weightFor maps effective calories onto a body weight
func (c *Character) weightFor(calories float64) float64 {
	cfg := &c.cfg
	return clamp(cfg.StartWeight+calories/cfg.CaloriesPerKg, cfg.MinWeight, cfg.MaxWeight)
}

// minCalories is the effective calorie level at which weight bottoms out
func (c *Character) minCalories() float64 {
	return (c.cfg.MinWeight - c.cfg.StartWeight) * c.cfg.CaloriesPerKg
}

// activityCoefficient scales energy expenditure with muscle tone
func (c *Character) activityCoefficient() float64 {
	return 1.2 + (c.state.EffectiveMuscles()/100)*0.75
}

// burnCalories is the per-minute calorie burn step
func (c *Character) burnCalories() {
	s := &c.state
	burn := c.cfg.CalorieBurn.For(c.movement) * c.activityCoefficient()
	if burn <= 0 {
		return
	}
	s.SessionDecreasedCalories += burn

	// calories never fall past the starvation floor
	if floor := c.minCalories(); s.EffectiveCalories() < floor {
		s.SessionDecreasedCalories = s.BaselineCalories + s.SessionConsumedCalories - floor
	}
	c.recomputeWeight()

	if s.Weight <= c.cfg.MinWeight {
		c.raise(ConditionStarvation)
	}
}

// recomputeWeight derives weight from effective calories and pushes the
// weight morphs when it changed
func (c *Character) recomputeWeight() {
	w := c.weightFor(c.state.EffectiveCalories())
	if w == c.state.Weight {
		return
	}
	c.state.Weight = w
	c.updateWeightMorphs(c.cfg.MorphUpdateDuration)
}

// weightPercents returns how far weight sits from the start weight toward the
// maximum (gain) or the minimum (loss), in percent. At most one is non-zero.
func (c *Character) weightPercents() (gain, loss float64) {
	cfg := &c.cfg
	w := c.state.Weight
	switch {
	case w > cfg.StartWeight:
		gain = percentBetween(w, cfg.StartWeight, cfg.MaxWeight)
	case w < cfg.StartWeight:
		loss = percentBetween(w, cfg.StartWeight, cfg.MinWeight)
	}
	return gain, loss
}

func (c *Character) updateWeightMorphs(d time.Duration) {
	gain, loss := c.weightPercents()
	for _, g := range c.cfg.Groups {
		if !g.Enabled {
			continue
		}
		if g.GainMorph != "" {
			c.table.Set(g.GainMorph, morph.CategoryWeight, gain)
			c.pushMorph(g.GainMorph, d)
		}
		if g.LossMorph != "" {
			c.table.Set(g.LossMorph, morph.CategoryWeightLoss, loss)
			c.pushMorph(g.LossMorph, d)
		}
	}
}

// hazardOvershoot returns how far past a hazard threshold the weight is, as a
// fraction of the distance from the threshold to the extreme
func (c *Character) hazardOvershoot() float64 {
	cfg := &c.cfg
	w := c.state.Weight
	gainThreshold := cfg.StartWeight + (cfg.MaxWeight-cfg.StartWeight)*cfg.HazardThreshold
	lossThreshold := cfg.StartWeight - (cfg.StartWeight-cfg.MinWeight)*cfg.HazardThreshold
	switch {
	case w > gainThreshold:
		return percentBetween(w, gainThreshold, cfg.MaxWeight) / 100
	case w < lossThreshold:
		return percentBetween(w, lossThreshold, cfg.MinWeight) / 100
	}
	return 0
}

// checkWeightHazard is the daily weight/health check
func (c *Character) checkWeightHazard() {
	over := c.hazardOvershoot()
	if over <= 0 {
		return
	}
	damage := c.cfg.HazardMaxDamage * over
	target := c.clampFor(StatHealth, c.projected(StatHealth)-damage)
	c.vitalTx.Begin(StatHealth.String(), target, c.cfg.HazardDamageDuration)
	c.logger.Warn("Weight outside healthy range, health decreasing",
		"weight", c.state.Weight,
		"damage", damage,
		"health_target", target)
}
