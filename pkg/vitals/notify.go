package vitals

// Condition is a terminal game-state condition raised by the simulation
type Condition string

const (
	ConditionStarvation     Condition = "starvation"
	ConditionHealthDepleted Condition = "health_depleted"
)

// Notifier receives terminal conditions. Raising one is a reported state, not
// a fault; the simulation keeps running.
type Notifier interface {
	TerminalCondition(c Condition)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(c Condition)

func (f NotifierFunc) TerminalCondition(c Condition) { f(c) }

// raise notifies once per condition until the latch is reset by Restore
func (c *Character) raise(cond Condition) {
	if c.raised[cond] {
		return
	}
	c.raised[cond] = true
	c.logger.Warn("Terminal condition reached", "condition", string(cond))
	if c.notifier != nil {
		c.notifier.TerminalCondition(cond)
	}
}

// Raised reports whether cond has been raised
func (c *Character) Raised(cond Condition) bool {
	return c.raised[cond]
}
