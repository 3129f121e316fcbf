package vitals

import (
	"time"

	"github.com/jwebster45206/vitals-engine/pkg/clock"
	"github.com/jwebster45206/vitals-engine/pkg/morph"
)

// defaultExpressionDuration applies when neither the caller nor the config
// gives an expression duration
const defaultExpressionDuration = 30 * time.Second

// SetFacialExpression moves name's Expression contribution to value over
// minutes of simulated time. minutes <= 0 uses the configured default.
func (c *Character) SetFacialExpression(name string, value, minutes float64) {
	d := clock.Minutes(minutes)
	if d <= 0 {
		d = c.cfg.ExpressionDuration
	}
	if d <= 0 {
		d = defaultExpressionDuration
	}
	c.table.Set(name, morph.CategoryExpression, value)
	c.pushMorph(name, d)
}

// ExpressionValue returns name's current Expression contribution
func (c *Character) ExpressionValue(name string) float64 {
	return c.MorphContribution(name, morph.CategoryExpression)
}

// ExpressionDriver is the part of a character a dialogue drives
type ExpressionDriver interface {
	ExpressionValue(name string) float64
	SetFacialExpression(name string, value, minutes float64)
}

// ExpressionSession tracks expression changes made during one dialogue so
// they can be undone when it ends. The first value seen for a name is kept.
type ExpressionSession struct {
	driver ExpressionDriver
	saved  map[string]float64
	order  []string
}

// NewExpressionSession starts recording changes made through driver
func NewExpressionSession(driver ExpressionDriver) *ExpressionSession {
	return &ExpressionSession{
		driver: driver,
		saved:  make(map[string]float64),
	}
}

// Set records name's pre-change value on first touch, then applies value
func (s *ExpressionSession) Set(name string, value, minutes float64) {
	if _, ok := s.saved[name]; !ok {
		s.saved[name] = s.driver.ExpressionValue(name)
		s.order = append(s.order, name)
	}
	s.driver.SetFacialExpression(name, value, minutes)
}

// Restore reverts every touched name to its recorded value and resets the session
func (s *ExpressionSession) Restore(minutes float64) {
	for _, name := range s.order {
		s.driver.SetFacialExpression(name, s.saved[name], minutes)
	}
	clear(s.saved)
	s.order = s.order[:0]
}

// Touched returns the number of names with a recorded value
func (s *ExpressionSession) Touched() int {
	return len(s.order)
}
