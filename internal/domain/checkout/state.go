// internal/domain/checkout/state.go
package checkout

import "fmt"

// State is the checkout state of one seller group
type State string

const (
	StateCreated    State = "CREATED"
	StateValidating State = "VALIDATING"
	StatePriced     State = "PRICED"
	StateConfirmed  State = "CONFIRMED"
	StateRejected   State = "REJECTED"
)

var transitions = map[State][]State{
	StateCreated:    {StateValidating},
	StateValidating: {StatePriced, StateRejected},
	StatePriced:     {StateConfirmed, StateRejected},
}

func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateRejected
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}

// CanTransitionTo reports whether next is a legal successor of s
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IllegalTransitionError signals a bug in the orchestrator, never bad input
type IllegalTransitionError struct {
	SellerID uint
	From, To State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("seller group %d: illegal transition %s -> %s", e.SellerID, e.From, e.To)
}

// groupMachine tracks one seller group through checkout
type groupMachine struct {
	sellerID uint
	state    State
	history  []State
}

func newGroupMachine(sellerID uint) *groupMachine {
	return &groupMachine{sellerID: sellerID, state: StateCreated, history: []State{StateCreated}}
}

func (m *groupMachine) transition(next State) error {
	if !m.state.CanTransitionTo(next) {
		return &IllegalTransitionError{SellerID: m.sellerID, From: m.state, To: next}
	}
	m.state = next
	m.history = append(m.history, next)
	return nil
}
