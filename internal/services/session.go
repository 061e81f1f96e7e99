package services

import "fmt"

// SlotState is the lifecycle position of a player's single game slot.
type SlotState string

const (
	StateIdle      SlotState = "idle"
	StateCommitted SlotState = "committed"
	StateResolved  SlotState = "resolved"
)

var transitions = map[SlotState][]SlotState{
	StateIdle:      {StateCommitted},
	StateCommitted: {StateResolved, StateIdle}, // idle only when abandoned or rolled back
	StateResolved:  {StateIdle},
}

// CanTransition reports whether the machine allows from -> to.
func CanTransition(from, to SlotState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition is the error a caller sees for an out-of-order call.
func checkTransition(current, from, to SlotState) error {
	if current == from && CanTransition(from, to) {
		return nil
	}
	if to == StateCommitted {
		return fmt.Errorf("%w: slot is %s", ErrGameInProgress, current)
	}
	return fmt.Errorf("%w: slot is %s, cannot move %s -> %s", ErrInvalidStateTransition, current, from, to)
}
