package vitals

import "strings"

// StatID enumerates the numeric stats exposed through Stat
type StatID uint8

const (
	StatFullness StatID = iota
	StatIntestinesFullness
	StatHydration
	StatWeight
	StatCalories
	StatMuscles
	StatStamina
	StatHealth
	StatPeristalticVelocity
	StatUrineVolume
	StatStomachCapacity
	StatIntestinesCapacity
	StatBladderCapacity

	StatCount
)

var statNames = [StatCount]string{
	StatFullness:            "fullness",
	StatIntestinesFullness:  "intestinesFullness",
	StatHydration:           "hydration",
	StatWeight:              "weight",
	StatCalories:            "calories",
	StatMuscles:             "muscles",
	StatStamina:             "stamina",
	StatHealth:              "health",
	StatPeristalticVelocity: "peristalticVelocity",
	StatUrineVolume:         "urineVolume",
	StatStomachCapacity:     "stomachCapacity",
	StatIntestinesCapacity:  "intestinesCapacity",
	StatBladderCapacity:     "bladderCapacity",
}

func (id StatID) String() string {
	if id < StatCount {
		return statNames[id]
	}
	return "unknown"
}

// statIndex maps lower-cased stat names to IDs
type statIndex map[string]StatID

func newStatIndex() statIndex {
	idx := make(statIndex, StatCount)
	for id := StatID(0); id < StatCount; id++ {
		idx[strings.ToLower(id.String())] = id
	}
	return idx
}

func (idx statIndex) lookup(name string) (StatID, bool) {
	id, ok := idx[strings.ToLower(name)]
	return id, ok
}

// Stat returns a stat by name. Unknown names log a warning and return 0.
func (c *Character) Stat(name string) float64 {
	id, ok := c.statIdx.lookup(name)
	if !ok {
		c.logger.Warn("Unknown stat requested", "stat", name)
		return 0
	}
	return c.StatByID(id)
}

// StatByID returns a stat by ID
func (c *Character) StatByID(id StatID) float64 {
	s := &c.state
	switch id {
	case StatFullness:
		return s.Fullness
	case StatIntestinesFullness:
		return s.IntestinesFullness
	case StatHydration:
		return s.Hydration
	case StatWeight:
		return s.Weight
	case StatCalories:
		return s.EffectiveCalories()
	case StatMuscles:
		return s.EffectiveMuscles()
	case StatStamina:
		return s.Stamina
	case StatHealth:
		return s.Health
	case StatPeristalticVelocity:
		return s.PeristalticVelocity
	case StatUrineVolume:
		return s.UrineVolume
	case StatStomachCapacity:
		return c.cfg.StomachCapacity
	case StatIntestinesCapacity:
		return c.cfg.IntestinesCapacity
	case StatBladderCapacity:
		return c.cfg.BladderCapacity
	}
	return 0
}

// setStat clamps and stores a directly settable stat, then runs its side effects.
// Derived stats (weight, calories, muscles) and capacities are read-only here.
func (c *Character) setStat(id StatID, v float64) {
	cfg := &c.cfg
	s := &c.state
	switch id {
	case StatFullness:
		s.Fullness = clamp(v, 0, cfg.StomachCapacity)
	case StatIntestinesFullness:
		s.IntestinesFullness = clamp(v, 0, cfg.IntestinesCapacity)
	case StatHydration:
		s.Hydration = clamp(v, cfg.MinHydration, cfg.MaxHydration)
	case StatStamina:
		s.Stamina = clamp(v, 0, cfg.MaxStamina)
	case StatHealth:
		s.Health = clamp(v, cfg.MinHealth, cfg.MaxHealth)
		if s.Health <= cfg.MinHealth {
			c.raise(ConditionHealthDepleted)
		}
	case StatPeristalticVelocity:
		s.PeristalticVelocity = clamp(v, cfg.MinPeristalticVelocity, cfg.MaxPeristalticVelocity)
	case StatUrineVolume:
		s.UrineVolume = clamp(v, 0, cfg.BladderCapacity)
	default:
		c.logger.Debug("Ignoring write to read-only stat", "stat", id.String())
	}
}

// vitalChannel exposes settable stats to a transition scheduler keyed by stat name
type vitalChannel struct {
	c *Character
}

func (v vitalChannel) Value(key string) float64 {
	id, ok := v.c.statIdx.lookup(key)
	if !ok {
		return 0
	}
	return v.c.StatByID(id)
}

func (v vitalChannel) Set(key string, value float64) {
	if id, ok := v.c.statIdx.lookup(key); ok {
		v.c.setStat(id, value)
	}
}
