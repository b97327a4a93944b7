package pipeline

import "time"

// State is a pipeline stage.
type State int

const (
	StateClean State = iota
	StateCopying
	StateMinifying
	StateBundling
	StateCleanup
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateCopying:
		return "copying"
	case StateMinifying:
		return "minifying"
	case StateBundling:
		return "bundling"
	case StateCleanup:
		return "cleanup"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// next is the only forward transition allowed from each non-terminal state.
var next = map[State]State{
	StateClean:     StateCopying,
	StateCopying:   StateMinifying,
	StateMinifying: StateBundling,
	StateBundling:  StateCleanup,
	StateCleanup:   StateDone,
}

// canTransition reports whether from → to is legal. Failed is reachable
// from any non-terminal state.
func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[from] == to
}

// Transition records one state change.
type Transition struct {
	From State
	To   State
	At   time.Time
	// Err is set on transitions into StateFailed.
	Err error
}
