package loop

// State represents where the controller sits in the loop lifecycle.
type State int

const (
	StateRunning   State = iota // Accepting actions.
	StateResetting              // Inside a reset transition; never a resting state.
)

// String returns the snake_case name of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateResetting:
		return "resetting"
	default:
		return "unknown"
	}
}

// Cause identifies why a reset fired.
type Cause int

const (
	CauseNone      Cause = iota // No reset.
	CauseSupernova              // The action counter reached the threshold.
	CauseDeath                  // The content layer signaled a death.
)

// String returns the snake_case name of the cause.
func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseSupernova:
		return "supernova"
	case CauseDeath:
		return "death"
	default:
		return "unknown"
	}
}

// Window is a per-location physics gate. The location is reachable
// while OpenAt <= counter < CloseAt; a zero CloseAt means the window
// never closes. The zero value is a location with no gate at all.
type Window struct {
	OpenAt  int
	CloseAt int
}

// Reachable reports whether the window admits the given counter.
func (w Window) Reachable(counter int) bool {
	if counter < w.OpenAt {
		return false
	}
	return w.CloseAt == 0 || counter < w.CloseAt
}

// Ephemera is the per-loop state discarded on every reset: the
// player's position plus the frequencies tuned and one-shot events
// witnessed this loop. The ship's log never sees any of this.
type Ephemera struct {
	Location  string
	Tuned     map[string]bool
	Witnessed map[string]bool
}

// NewEphemera returns fresh per-loop state anchored at the start
// location.
func NewEphemera(start string) *Ephemera {
	return &Ephemera{
		Location:  start,
		Tuned:     make(map[string]bool),
		Witnessed: make(map[string]bool),
	}
}
