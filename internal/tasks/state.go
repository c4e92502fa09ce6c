package tasks

import "fmt"

// StateKind names the phases of a task invocation.
type StateKind string

// Task invocation phases.
const (
	StatePending   StateKind = "pending"
	StateRunning   StateKind = "running"
	StateFailed    StateKind = "failed"
	StateSucceeded StateKind = "succeeded"
)

// State is the position of a task invocation in its lifecycle. StepIndex is
// meaningful for running (current step) and failed (first failing step) states.
type State struct {
	Kind      StateKind
	StepIndex int
}

// String renders the state, e.g. "running(2)".
func (state State) String() string {
	switch state.Kind {
	case StateRunning, StateFailed:
		return fmt.Sprintf("%s(%d)", state.Kind, state.StepIndex)
	default:
		return string(state.Kind)
	}
}

// Terminal reports whether no further transition is allowed.
func (state State) Terminal() bool {
	return state.Kind == StateFailed || state.Kind == StateSucceeded
}

// stateMachine enforces Pending -> Running(i) -> {Running(i+1) | Failed | Succeeded}.
type stateMachine struct {
	current State
	history []State
}

func newStateMachine() *stateMachine {
	initial := State{Kind: StatePending}
	return &stateMachine{current: initial, history: []State{initial}}
}

func (machine *stateMachine) transition(next State) error {
	if !allowedTransition(machine.current, next) {
		return InvalidTransitionError{From: machine.current, To: next}
	}
	machine.current = next
	machine.history = append(machine.history, next)
	return nil
}

func allowedTransition(from State, to State) bool {
	switch from.Kind {
	case StatePending:
		return to.Kind == StateRunning && to.StepIndex == 0
	case StateRunning:
		switch to.Kind {
		case StateRunning:
			return to.StepIndex == from.StepIndex+1
		case StateFailed:
			return to.StepIndex >= 0 && to.StepIndex <= from.StepIndex
		case StateSucceeded:
			return true
		default:
			return false
		}
	default:
		return false
	}
}
