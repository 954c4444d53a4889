// Package status holds the lifecycle rules for meetings and chat messages.
// Both are small state machines driven by a transition table; meetings are
// additionally re-derived from the wall clock by the sweeper.
package status

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidTransition is returned when a requested state change is not in the
// transition table.
var ErrInvalidTransition = errors.New("invalid transition")

func transition[S ~string](table map[S][]S, from, to S) error {
	if from == to {
		return nil
	}
	if !slices.Contains(table[from], to) {
		return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}
