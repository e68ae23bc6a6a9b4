package importer

import "fmt"

// State is a step of the per-import state machine.
type State int

const (
	StatePending State = iota
	StateValidating
	StateFailedValidation
	StateSplitting
	StateScoring
	StatePersisting
	StateFailedPersistence
	StateCompleted
)

var stateNames = map[State]string{
	StatePending:           "PENDING",
	StateValidating:        "VALIDATING",
	StateFailedValidation:  "FAILED_VALIDATION",
	StateSplitting:         "SPLITTING",
	StateScoring:           "SCORING",
	StatePersisting:        "PERSISTING",
	StateFailedPersistence: "FAILED_PERSISTENCE",
	StateCompleted:         "COMPLETED",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailedValidation || s == StateFailedPersistence
}

// A schema failure while splitting is reported as a validation failure.
var transitions = map[State][]State{
	StatePending:    {StateValidating},
	StateValidating: {StateFailedValidation, StateSplitting},
	StateSplitting:  {StateFailedValidation, StateScoring},
	StateScoring:    {StatePersisting},
	StatePersisting: {StateFailedPersistence, StateCompleted},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
