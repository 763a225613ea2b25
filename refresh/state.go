package refresh

import (
	"fmt"
)

// State is the stage of a single run. A run always ends Committed or
// RolledBack.
type State int

const (
	Idle State = iota
	Reading
	Normalizing
	Writing
	Committed
	RolledBack
)

var states = map[State]string{
	Idle:        "Idle",
	Reading:     "Reading",
	Normalizing: "Normalizing",
	Writing:     "Writing",
	Committed:   "Committed",
	RolledBack:  "RolledBack",
}

func (s State) String() string {
	if v, ok := states[s]; ok {
		return v
	}

	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) Terminal() bool {
	return s == Committed || s == RolledBack
}

var transitions = map[State][]State{
	Idle:        {Reading},
	Reading:     {Normalizing, RolledBack},
	Normalizing: {Writing, RolledBack},
	Writing:     {Committed, RolledBack},
}

func (s State) next(to State) error {
	for _, v := range transitions[s] {
		if v == to {
			return nil
		}
	}

	return fmt.Errorf("invalid state transition %v -> %v", s, to)
}
