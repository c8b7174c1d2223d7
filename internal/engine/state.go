package engine

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a work item.
type State int

const (
	Pending State = iota
	Resolving
	Transferring
	Verifying
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolving:
		return "resolving"
	case Transferring:
		return "transferring"
	case Verifying:
		return "verifying"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Confirmed || s == Failed
}

var ErrInvalidTransition = errors.New("invalid state transition")

// Transition validates a move from one state to another. Items only move
// forward; Pending may jump straight to Confirmed when the ledger already
// vouches for the file, and any non-terminal state may fail.
func Transition(from, to State) (State, error) {
	if !allowed(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

func allowed(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Failed {
		return true
	}
	switch from {
	case Pending:
		return to == Resolving || to == Confirmed
	case Resolving:
		return to == Transferring
	case Transferring:
		return to == Verifying
	case Verifying:
		return to == Confirmed
	}
	return false
}
