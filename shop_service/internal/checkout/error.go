package checkout

import "fmt"

// State is a step of the checkout state machine.
type State string

const (
	StateDrainingCart    State = "DRAINING_CART"
	StatePricing         State = "PRICING"
	StateDebiting        State = "DEBITING"
	StatePersistingOrder State = "PERSISTING_ORDER"
	StateClearingCart    State = "CLEARING_CART"
	StateDone            State = "DONE"
)

// Error reports the state a checkout failed in. Err wraps one of the shop's sentinel errors.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("checkout failed at %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(state State, err error) *Error {
	return &Error{State: state, Err: err}
}
