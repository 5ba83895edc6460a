// Package loop implements the time-loop controller: the fixed action
// budget, the synchronous reset cascade that fires when it runs out,
// death handling, and the physics windows that gate locations by the
// current action counter.
package loop

// DefaultThreshold is the number of state-changing actions in a loop.
const DefaultThreshold = 22

// warnLead is how many actions before the threshold the supernova
// warning fires.
const warnLead = 4

// Controller owns the action counter and the reset transition. It
// knows nothing about what the reset destroys; the session wires that
// in through OnReset, which runs synchronously inside the transition.
type Controller struct {
	Threshold int
	Windows   map[string]Window
	// OnReset is invoked exactly once per reset, after the counter is
	// cleared, while the controller reports StateResetting.
	OnReset func(Cause)

	counter int
	state   State
}

// Tick reports what a single action advance caused.
type Tick struct {
	Counter int  // counter after the advance (0 when a reset fired)
	Warning bool // true exactly when the warning threshold was crossed
	Reset   bool
	Cause   Cause    // CauseSupernova when Reset came from the threshold
	Closed  []string // locations whose windows closed at this counter
}

// New returns a controller with the given action threshold and
// per-location physics windows. A non-positive threshold falls back to
// DefaultThreshold.
func New(threshold int, windows map[string]Window) *Controller {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Controller{
		Threshold: threshold,
		Windows:   windows,
		state:     StateRunning,
	}
}

// Advance consumes one action. When the counter reaches the threshold
// the reset cascade fires inside this call: by the time Advance
// returns, the controller is running again with a zero counter.
func (c *Controller) Advance() Tick {
	c.counter++
	tick := Tick{Counter: c.counter}

	for loc, w := range c.Windows {
		if w.CloseAt != 0 && w.CloseAt == c.counter {
			tick.Closed = append(tick.Closed, loc)
		}
	}

	if warnAt := c.Threshold - warnLead; warnAt > 0 && c.counter == warnAt {
		tick.Warning = true
	}

	if c.counter >= c.Threshold {
		c.reset(CauseSupernova)
		tick.Reset = true
		tick.Cause = CauseSupernova
		tick.Counter = 0
	}
	return tick
}

// Die fires an immediate reset regardless of the counter. Deaths are
// signaled by the content layer (standing in a collapsing cavern, for
// one) and behave exactly like the supernova: ephemeral state dies,
// knowledge survives.
func (c *Controller) Die() Tick {
	c.reset(CauseDeath)
	return Tick{Reset: true, Cause: CauseDeath}
}

// reset performs the instantaneous transition: clear the counter, run
// the session's teardown hook, resume running.
func (c *Controller) reset(cause Cause) {
	c.state = StateResetting
	c.counter = 0
	if c.OnReset != nil {
		c.OnReset(cause)
	}
	c.state = StateRunning
}

// Reachable reports whether a location's physics window admits the
// current counter. Locations without a window are always reachable.
func (c *Controller) Reachable(location string) bool {
	return c.Windows[location].Reachable(c.counter)
}

// Counter returns the number of actions consumed this loop.
func (c *Controller) Counter() int {
	return c.counter
}

// Remaining returns how many actions are left before the supernova.
func (c *Controller) Remaining() int {
	return c.Threshold - c.counter
}

// WarningActive reports whether the loop is inside its final stretch.
func (c *Controller) WarningActive() bool {
	warnAt := c.Threshold - warnLead
	return warnAt > 0 && c.counter >= warnAt
}

// State reports the controller's lifecycle state. Outside a reset
// transition this is always StateRunning.
func (c *Controller) State() State {
	return c.state
}
