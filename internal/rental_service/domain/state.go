package domain

import "fmt"

// State is the subscription lifecycle state attached to a Subscriber.
type State string

const (
	StateNew              State = "new"
	StateAwaitingPayment  State = "awaiting_payment"
	StateAwaitingApproval State = "awaiting_approval"
	StateActive           State = "active"
	StateExpired          State = "expired"
)

// Event is a lifecycle trigger applied to a subscription state.
type Event string

const (
	EventSelectPlan  Event = "select_plan"  // subscriber picked a plan
	EventSubmitProof Event = "submit_proof" // subscriber sent payment proof
	EventApprove     Event = "approve"      // operator granted the request
	EventDeny        Event = "deny"         // operator denied the request
	EventExpire      Event = "expire"       // sweeper detected a lapsed window
)

// Transition is the pure subscription state machine: given the current state
// and an event it returns the next state, or ErrStateViolation when the event
// is not allowed from that state. It performs no I/O and carries no side
// effects; callers persist the resulting state and run the effects themselves.
func Transition(current State, event Event) (State, error) {
	switch event {
	case EventSelectPlan:
		// Both fresh and lapsed subscribers may (re-)enter the funnel.
		if current == StateNew || current == StateExpired {
			return StateAwaitingPayment, nil
		}
	case EventSubmitProof:
		if current == StateAwaitingPayment {
			return StateAwaitingApproval, nil
		}
	case EventApprove:
		if current == StateAwaitingApproval {
			return StateActive, nil
		}
	case EventDeny:
		if current == StateAwaitingApproval {
			return StateNew, nil
		}
	case EventExpire:
		if current == StateActive {
			return StateExpired, nil
		}
	}
	return current, fmt.Errorf("%w: event %q not allowed in state %q", ErrStateViolation, event, current)
}
