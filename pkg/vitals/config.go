package vitals

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Movement is the character's locomotion state, used to pick burn and drain rates
type Movement uint8

const (
	MovementRest Movement = iota
	MovementWalk
	MovementRun
)

func (m Movement) String() string {
	switch m {
	case MovementWalk:
		return "walk"
	case MovementRun:
		return "run"
	default:
		return "rest"
	}
}

// ParseMovement resolves "rest", "walk" or "run"
func ParseMovement(s string) (Movement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rest", "idle", "":
		return MovementRest, nil
	case "walk":
		return MovementWalk, nil
	case "run":
		return MovementRun, nil
	default:
		return MovementRest, fmt.Errorf("unknown movement %q", s)
	}
}

// Rates holds a per-minute value for each movement state
type Rates struct {
	Rest float64
	Walk float64
	Run  float64
}

// For returns the rate for m
func (r Rates) For(m Movement) float64 {
	switch m {
	case MovementWalk:
		return r.Walk
	case MovementRun:
		return r.Run
	default:
		return r.Rest
	}
}

// DistributionGroup is a body region whose gain and loss morphs follow weight
type DistributionGroup struct {
	Name      string
	GainMorph string
	LossMorph string
	Enabled   bool
}

// Config holds the tuning for one character. Volumes are in millilitres,
// weights in kilograms, rates per simulated minute unless named otherwise.
type Config struct {
	// Digestion
	StomachCapacity          float64
	IntestinesCapacity       float64
	FullnessDecreasePerHour  float64
	IntestinesTransferRatio  float64
	FullnessDecayInterval    time.Duration
	DecayArmDelay            time.Duration
	MealSessionGap           time.Duration
	StartPeristalticVelocity float64
	MinPeristalticVelocity   float64
	MaxPeristalticVelocity   float64

	// Hydration
	StartHydration             float64
	MinHydration               float64
	MaxHydration               float64
	HydrationLoss              Rates
	DehydrationDamagePerMinute float64
	BladderCapacity            float64
	UrinePerHydration          float64

	// Weight and calories
	StartWeight      float64
	MinWeight        float64
	MaxWeight        float64
	CaloriesPerKg    float64
	BaselineCalories float64
	CalorieBurn      Rates

	// Muscles
	BaselineMuscles     float64
	MinMuscles          float64
	MaxMuscles          float64
	MuscleDecayInterval time.Duration
	MuscleDecayPerTick  float64

	// Stamina
	MaxStamina            float64
	StaminaDrainBase      float64
	SprintMultiplier      float64
	StaminaRegenPerMinute float64

	// Health
	StartHealth          float64
	MinHealth            float64
	MaxHealth            float64
	HazardCheckInterval  time.Duration
	HazardThreshold      float64
	HazardMaxDamage      float64
	HazardDamageDuration time.Duration

	// Eating impulses: ramp, hold, ramp back
	ImpulseDuration time.Duration
	ImpulseHold     time.Duration
	ReliefDuration  time.Duration

	// Morph wiring
	MorphUpdateDuration time.Duration
	ExpressionDuration  time.Duration
	Groups              []DistributionGroup
	FullnessMorphs      []string
	IntestinesMorphs    []string
	UrineMorphs         []string
	MuscleGainMorphs    []string
	MuscleLossMorphs    []string
}

// DefaultConfig returns the stock tuning for an adult character
func DefaultConfig() Config {
	return Config{
		StomachCapacity:          1500,
		IntestinesCapacity:       3000,
		FullnessDecreasePerHour:  300,
		IntestinesTransferRatio:  0.2,
		FullnessDecayInterval:    30 * time.Second,
		DecayArmDelay:            30 * time.Minute,
		MealSessionGap:           3 * time.Hour,
		StartPeristalticVelocity: 100,
		MinPeristalticVelocity:   10,
		MaxPeristalticVelocity:   300,

		StartHydration:             100,
		MinHydration:               0,
		MaxHydration:               100,
		HydrationLoss:              Rates{Rest: 0.05, Walk: 0.08, Run: 0.15},
		DehydrationDamagePerMinute: 0.1,
		BladderCapacity:            500,
		UrinePerHydration:          4,

		StartWeight:      70,
		MinWeight:        40,
		MaxWeight:        180,
		CaloriesPerKg:    7700,
		BaselineCalories: 0,
		CalorieBurn:      Rates{Rest: 1.1, Walk: 3.5, Run: 8},

		BaselineMuscles:     50,
		MinMuscles:          0,
		MaxMuscles:          100,
		MuscleDecayInterval: time.Hour,
		MuscleDecayPerTick:  0.02,

		MaxStamina:            100,
		StaminaDrainBase:      2,
		SprintMultiplier:      2.5,
		StaminaRegenPerMinute: 5,

		StartHealth:          100,
		MinHealth:            0,
		MaxHealth:            100,
		HazardCheckInterval:  24 * time.Hour,
		HazardThreshold:      0.5,
		HazardMaxDamage:      20,
		HazardDamageDuration: 3 * time.Minute,

		ImpulseDuration: 3 * time.Minute,
		ImpulseHold:     24 * time.Hour,
		ReliefDuration:  time.Minute,

		MorphUpdateDuration: time.Minute,
		ExpressionDuration:  30 * time.Second,
		Groups: []DistributionGroup{
			{Name: "Boobs", GainMorph: "boobs_fat", LossMorph: "boobs_thin", Enabled: true},
			{Name: "Torso", GainMorph: "torso_fat", LossMorph: "torso_thin", Enabled: true},
			{Name: "Thighs", GainMorph: "thighs_fat", LossMorph: "thighs_thin", Enabled: true},
			{Name: "Shins", GainMorph: "shins_fat", LossMorph: "shins_thin", Enabled: true},
			{Name: "Arms", GainMorph: "arms_fat", LossMorph: "arms_thin", Enabled: true},
			{Name: "WholeBody", GainMorph: "body_fat", LossMorph: "body_thin", Enabled: true},
			{Name: "Glutes", GainMorph: "glutes_fat", LossMorph: "glutes_thin", Enabled: true},
		},
		FullnessMorphs:   []string{"belly_stuffed"},
		IntestinesMorphs: []string{"belly_lower"},
		UrineMorphs:      []string{"bladder"},
		MuscleGainMorphs: []string{"muscles"},
		MuscleLossMorphs: []string{"muscles_weak"},
	}
}

// Validate checks that every bounded stat has a usable range
func (c Config) Validate() error {
	var errs []error
	check := func(name string, lo, hi float64) {
		if lo >= hi {
			errs = append(errs, fmt.Errorf("%s: min %v must be below max %v", name, lo, hi))
		}
	}
	check("weight", c.MinWeight, c.MaxWeight)
	check("hydration", c.MinHydration, c.MaxHydration)
	check("muscles", c.MinMuscles, c.MaxMuscles)
	check("health", c.MinHealth, c.MaxHealth)
	check("peristaltic velocity", c.MinPeristalticVelocity, c.MaxPeristalticVelocity)
	check("stamina", 0, c.MaxStamina)
	if c.StartWeight <= 0 {
		errs = append(errs, fmt.Errorf("start weight %v must be positive", c.StartWeight))
	} else if c.StartWeight < c.MinWeight || c.StartWeight > c.MaxWeight {
		errs = append(errs, fmt.Errorf("start weight %v outside [%v, %v]", c.StartWeight, c.MinWeight, c.MaxWeight))
	}
	if c.CaloriesPerKg <= 0 {
		errs = append(errs, errors.New("calories per kg must be positive"))
	}
	if c.StomachCapacity <= 0 || c.IntestinesCapacity <= 0 || c.BladderCapacity <= 0 {
		errs = append(errs, errors.New("capacities must be positive"))
	}
	return errors.Join(errs...)
}

// MorphNames lists every morph the config drives
func (c Config) MorphNames() []string {
	var names []string
	for _, g := range c.Groups {
		if g.GainMorph != "" {
			names = append(names, g.GainMorph)
		}
		if g.LossMorph != "" {
			names = append(names, g.LossMorph)
		}
	}
	names = append(names, c.FullnessMorphs...)
	names = append(names, c.IntestinesMorphs...)
	names = append(names, c.UrineMorphs...)
	names = append(names, c.MuscleGainMorphs...)
	names = append(names, c.MuscleLossMorphs...)
	return names
}
