package workflow

import "fmt"

// State represents a workflow state in the expenditure request lifecycle
type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateCompleted State = "completed"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateApproved:  true,
	StateRejected:  true,
	StateCompleted: true,
}

// Completed is the only terminal state: a rejected request can still be
// reverted back to pending, a completed one cannot move again.
var terminalStates = map[State]bool{
	StateCompleted: true,
}

// ParseState converts a stored status string into a State, failing with
// ErrInvalidState for anything outside the lifecycle.
func ParseState(s string) (State, error) {
	state := State(s)
	if !state.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return state, nil
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
