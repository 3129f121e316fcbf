package vitals

import "time"

// State is the character's scalar vital state. Calories and muscles are kept
// as a persisted baseline plus deltas accumulated this session.
type State struct {
	Fullness            float64
	IntestinesFullness  float64
	Hydration           float64
	Weight              float64
	Stamina             float64
	Health              float64
	PeristalticVelocity float64
	UrineVolume         float64

	BaselineCalories         float64
	SessionConsumedCalories  float64
	SessionDecreasedCalories float64

	BaselineMuscles         float64
	SessionIncreasedMuscles float64
	SessionDecreasedMuscles float64
}

// EffectiveCalories is baseline + consumed - decreased
func (s State) EffectiveCalories() float64 {
	return s.BaselineCalories + s.SessionConsumedCalories - s.SessionDecreasedCalories
}

// EffectiveMuscles is baseline + increased - decreased
func (s State) EffectiveMuscles() float64 {
	return s.BaselineMuscles + s.SessionIncreasedMuscles - s.SessionDecreasedMuscles
}

// Snapshot is the persisted form of a character. Calories and muscles are
// stored folded, so a restored character starts with zero session deltas.
type Snapshot struct {
	Fullness            float64       `json:"fullness"`
	IntestinesFullness  float64       `json:"intestines_fullness"`
	Hydration           float64       `json:"hydration"`
	Weight              float64       `json:"weight"`
	Calories            float64       `json:"calories"`
	Muscles             float64       `json:"muscles"`
	Stamina             float64       `json:"stamina"`
	Health              float64       `json:"health"`
	PeristalticVelocity float64       `json:"peristaltic_velocity"`
	UrineVolume         float64       `json:"urine_volume"`
	SimTime             time.Duration `json:"sim_time"`
	SavedAt             time.Time     `json:"saved_at,omitzero"`

	// Eating effects still in progress. Durations are relative to SimTime.
	Transitions   []StatTransition `json:"transitions,omitempty"`
	Impulses      []PendingImpulse `json:"impulses,omitempty"`
	DecayPaused   bool             `json:"decay_paused,omitempty"`
	DecayArmsIn   time.Duration    `json:"decay_arms_in,omitempty"`
	HasEaten      bool             `json:"has_eaten,omitempty"`
	SinceLastMeal time.Duration    `json:"since_last_meal,omitempty"`
}

// StatTransition is a stat moving toward To, with Remaining left to run
type StatTransition struct {
	Stat      string        `json:"stat"`
	To        float64       `json:"to"`
	Remaining time.Duration `json:"remaining"`
}

// PendingImpulse is an eating impulse that ramps Applied back out after RevertIn
type PendingImpulse struct {
	Stat     string        `json:"stat"`
	Applied  float64       `json:"applied"`
	RevertIn time.Duration `json:"revert_in"`
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// percentBetween maps v in [from, to] onto [0, 100]
func percentBetween(v, from, to float64) float64 {
	if to == from {
		return 0
	}
	return clamp((v-from)/(to-from)*100, 0, 100)
}
