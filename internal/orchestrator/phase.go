package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the lifecycle position of a request.
type Phase string

const (
	PhaseInit       Phase = "init"
	PhaseRunning    Phase = "running"
	PhaseFinalizing Phase = "finalizing"
	PhaseDone       Phase = "done"
)

// allowedTransitions lists every legal phase change. Dispatch steps inside
// running are not phase changes. done is terminal.
var allowedTransitions = map[Phase]map[Phase]struct{}{
	PhaseInit: {
		PhaseRunning:    {},
		PhaseFinalizing: {},
	},
	PhaseRunning: {
		PhaseFinalizing: {},
	},
	PhaseFinalizing: {
		PhaseDone: {},
	},
	PhaseDone: {},
}

// ErrInvalidTransition is returned for a phase change outside allowedTransitions.
var ErrInvalidTransition = errors.New("invalid phase transition")

// ErrInvalidPhase is returned when an operation is attempted in the wrong phase.
var ErrInvalidPhase = errors.New("operation not allowed in current phase")

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := allowedTransitions[p]
	return ok
}

// Terminal reports whether no transition leaves p.
func (p Phase) Terminal() bool {
	return p.Valid() && len(allowedTransitions[p]) == 0
}

// ValidateTransition checks that from -> to is a legal phase change.
func ValidateTransition(from, to Phase) error {
	if !from.Valid() {
		return fmt.Errorf("invalid phase: %q", from)
	}
	if !to.Valid() {
		return fmt.Errorf("invalid phase: %q", to)
	}
	if _, ok := allowedTransitions[from][to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Transition is one recorded phase change.
type Transition struct {
	From   Phase
	To     Phase
	Reason string
	At     time.Time
}
