package vitals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/vitals-engine/pkg/morph"
)

func TestEating_RejectedWhenStomachFull(t *testing.T) {
	c, _, _ := newTestCharacter(t, nil)
	c.state.Fullness = c.cfg.StomachCapacity

	err := c.UpdateStatsOnEating(EatEvent{
		Volume:       1,
		Calories:     500,
		Hydration:    10,
		HealthImpact: 5,
		Duration:     5 * time.Minute,
	})

	require.ErrorIs(t, err, ErrStomachFull)
	st := c.State()
	assert.Equal(t, 1500.0, st.Fullness)
	assert.Zero(t, st.SessionConsumedCalories)
	assert.Equal(t, 100.0, st.Hydration)
	assert.Zero(t, c.vitalTx.Len(), "no stat transition may start")
	assert.Zero(t, c.morphTx.Len(), "no morph transition may start")
	assert.Nil(t, c.armTimer, "a rejected meal does not open a session")
}

func TestEating_RejectedWhenHydrationTooLow(t *testing.T) {
	c, _, _ := newTestCharacter(t, nil)
	c.state.Hydration = 5

	err := c.UpdateStatsOnEating(EatEvent{Volume: 50, Calories: 100, Hydration: -10})

	require.ErrorIs(t, err, ErrHydrationTooLow)
	assert.Equal(t, 5.0, c.State().Hydration)
	assert.Zero(t, c.State().SessionConsumedCalories)
	assert.Zero(t, c.vitalTx.Len())
}

func TestEating_RejectionCountsInFlightMeal(t *testing.T) {
	c, _, _ := newTestCharacter(t, nil)

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{Volume: 1400, Duration: 10 * time.Minute}))
	assert.Zero(t, c.State().Fullness, "fullness has not started moving yet")

	err := c.UpdateStatsOnEating(EatEvent{Volume: 200, Duration: 10 * time.Minute})
	assert.ErrorIs(t, err, ErrStomachFull)
}

func TestEating_TransitionsOverDuration(t *testing.T) {
	c, clk, body := newTestCharacter(t, nil)

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{
		Volume:    300,
		Calories:  400,
		Hydration: 10,
		Duration:  10 * time.Minute,
	}))
	assert.Equal(t, 400.0, c.State().SessionConsumedCalories)
	assert.False(t, c.DecayEnabled())

	step(c, clk, 5*time.Minute)
	assert.InDelta(t, 150.0, c.State().Fullness, 1e-9)
	assert.InDelta(t, 10.0, body.Weight("belly_stuffed"), 1e-9)
	assert.InDelta(t, 20.0, c.State().UrineVolume, 1e-9)

	step(c, clk, 5*time.Minute)
	st := c.State()
	assert.Equal(t, 300.0, st.Fullness)
	assert.Equal(t, 40.0, st.UrineVolume)
	assert.Equal(t, 20.0, body.Weight("belly_stuffed"))
	assert.Equal(t, 8.0, body.Weight("bladder"))
	assert.Zero(t, c.vitalTx.Len())
}

func TestEating_SecondMealBuildsOnInFlightTarget(t *testing.T) {
	c, clk, _ := newTestCharacter(t, nil)

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{Volume: 300, Duration: 10 * time.Minute}))
	step(c, clk, 5*time.Minute)
	require.NoError(t, c.UpdateStatsOnEating(EatEvent{Volume: 300, Duration: 10 * time.Minute}))

	step(c, clk, 10*time.Minute)
	assert.Equal(t, 600.0, c.State().Fullness)
}

func TestMealSession_CloseMealsShareSession(t *testing.T) {
	c, clk, _ := newTestCharacter(t, nil)

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{Volume: 100}))
	first := c.armTimer
	require.NotNil(t, first)
	assert.False(t, c.DecayEnabled())

	step(c, clk, time.Hour)
	assert.True(t, c.DecayEnabled())

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{Volume: 100}))
	assert.Same(t, first, c.armTimer, "arming timer must not restart within a session")
	assert.True(t, c.DecayEnabled())
}

func TestMealSession_DistantMealsRestartSession(t *testing.T) {
	c, clk, _ := newTestCharacter(t, nil)

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{Volume: 100}))
	first := c.armTimer

	step(c, clk, 4*time.Hour)
	assert.True(t, c.DecayEnabled())

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{Volume: 100}))
	assert.NotSame(t, first, c.armTimer)
	assert.False(t, c.DecayEnabled())

	step(c, clk, 29*time.Minute)
	assert.False(t, c.DecayEnabled())

	step(c, clk, time.Minute)
	assert.True(t, c.DecayEnabled())
}

func TestDigestion_MovesFullnessToIntestines(t *testing.T) {
	c, clk, body := newTestCharacter(t, nil)

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{Volume: 300}))

	step(c, clk, 30*time.Minute)
	require.True(t, c.DecayEnabled())
	assert.Equal(t, 300.0, c.State().Fullness, "no decay before the session is armed")

	step(c, clk, 30*time.Second)
	st := c.State()
	assert.InDelta(t, 297.5, st.Fullness, 1e-9)
	assert.InDelta(t, 0.5, st.IntestinesFullness, 1e-9)

	step(c, clk, 30*time.Second)
	assert.InDelta(t, 295.0, c.State().Fullness, 1e-9)
	assert.InDelta(t, 295.0/15, c.MorphContribution("belly_stuffed", morph.CategoryFullness), 1e-9)
	assert.Greater(t, body.Weight("belly_stuffed"), 0.0)
}

func TestDigestion_ScalesWithPeristalticVelocity(t *testing.T) {
	c, clk, _ := newTestCharacter(t, nil)
	c.state.Fullness = 100
	c.state.PeristalticVelocity = 200

	step(c, clk, 30*time.Second)
	assert.InDelta(t, 95.0, c.State().Fullness, 1e-9)
}

func TestDigestion_StopsWhenIntestinesFull(t *testing.T) {
	c, clk, _ := newTestCharacter(t, nil)
	c.state.Fullness = 100
	c.state.IntestinesFullness = c.cfg.IntestinesCapacity

	step(c, clk, 10*time.Minute)
	assert.Equal(t, 100.0, c.State().Fullness)
}

func TestImpulse_RampsHoldsAndReverts(t *testing.T) {
	c, clk, _ := newTestCharacter(t, nil)

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{
		Volume:            50,
		HealthImpact:      -10,
		PeristalticImpact: 50,
	}))

	step(c, clk, 3*time.Minute)
	assert.InDelta(t, 90.0, c.State().Health, 1e-9)
	assert.InDelta(t, 150.0, c.State().PeristalticVelocity, 1e-9)

	step(c, clk, 24*time.Hour)
	assert.InDelta(t, 90.0, c.State().Health, 1e-9, "impulse holds")

	step(c, clk, 3*time.Minute)
	assert.InDelta(t, 100.0, c.State().Health, 1e-9)
	assert.InDelta(t, 100.0, c.State().PeristalticVelocity, 1e-9)
	assert.Empty(t, c.reverts)
}

func TestImpulse_ClampedAtBounds(t *testing.T) {
	c, clk, _ := newTestCharacter(t, nil)

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{HealthImpact: 30}))
	step(c, clk, 3*time.Minute)
	assert.Equal(t, 100.0, c.State().Health)

	// nothing was applied, so nothing is taken back
	step(c, clk, 24*time.Hour+3*time.Minute)
	step(c, clk, 3*time.Minute)
	assert.Equal(t, 100.0, c.State().Health)
}

func TestHealthDepleted_RaisedOnce(t *testing.T) {
	var got []Condition
	c, clk, _ := newTestCharacter(t, nil)
	c.WithNotifier(NotifierFunc(func(cond Condition) {
		got = append(got, cond)
	}))

	require.NoError(t, c.UpdateStatsOnEating(EatEvent{HealthImpact: -200}))
	step(c, clk, 3*time.Minute)
	step(c, clk, time.Minute)

	assert.Equal(t, 0.0, c.State().Health)
	assert.Equal(t, []Condition{ConditionHealthDepleted}, got)
}

func TestRelief_EmptiesOverOneMinute(t *testing.T) {
	c, clk, body := newTestCharacter(t, func(cfg *Config) {
		cfg.HydrationLoss = Rates{}
	})
	c.state.UrineVolume = 200
	c.state.IntestinesFullness = 600

	c.Urinate()
	c.Defecate()
	step(c, clk, 30*time.Second)
	assert.InDelta(t, 100.0, c.State().UrineVolume, 1e-9)
	assert.InDelta(t, 300.0, c.State().IntestinesFullness, 1e-9)

	step(c, clk, 30*time.Second)
	assert.Zero(t, c.State().UrineVolume)
	assert.Zero(t, c.State().IntestinesFullness)
	assert.Zero(t, body.Weight("bladder"))
	assert.Zero(t, c.MorphContribution("belly_lower", morph.CategoryIntestinesFullness))
}

func TestEatDuration(t *testing.T) {
	assert.Equal(t, 150*time.Second, EatDuration(2.5))
	assert.Equal(t, time.Duration(0), EatDuration(0))
}
