package domain

// FlowState is the checkout controller's position in the purchase flow.
type FlowState string

const (
	StateBrowsing          FlowState = "BROWSING"
	StateCustomerRequired  FlowState = "CUSTOMER_REQUIRED"
	StateReviewSummary     FlowState = "REVIEW_SUMMARY"
	StateCollectingPayment FlowState = "COLLECTING_PAYMENT"
	StateCompleted         FlowState = "COMPLETED"
	StateCancelled         FlowState = "CANCELLED"
)

func (s FlowState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

func (s FlowState) String() string { return string(s) }

type FlowEvent string

const (
	EventBeginCheckout    FlowEvent = "BEGIN_CHECKOUT"
	EventCustomerSelected FlowEvent = "CUSTOMER_SELECTED"
	EventCollectPayment   FlowEvent = "COLLECT_PAYMENT"
	EventTenderCompleted  FlowEvent = "TENDER_COMPLETED"
	EventTenderCancelled  FlowEvent = "TENDER_CANCELLED"
	EventCancel           FlowEvent = "CANCEL"
)

// Guards carries the facts the transition function routes on.
type Guards struct {
	HasLines    bool
	HasCustomer bool
}

// Next is the flow's single transition function. It is pure: the controller
// owns all side effects (snapshotting, clearing the cart, event emission).
// The returned bool reports whether the event applied; an event that does not
// fit the current state leaves it unchanged. Missing customer or an empty
// cart are routing outcomes, never errors.
func Next(state FlowState, ev FlowEvent, g Guards) (FlowState, bool) {
	if state.IsTerminal() {
		return state, false
	}
	switch ev {
	case EventBeginCheckout:
		if state != StateBrowsing && state != StateCustomerRequired {
			return state, false
		}
		return routeToReview(g), true
	case EventCustomerSelected:
		// Selecting a customer re-routes only from the gate state; anywhere
		// else it just updates the cart.
		if state != StateCustomerRequired {
			return state, false
		}
		return routeToReview(g), true
	case EventCollectPayment:
		if state != StateReviewSummary {
			return state, false
		}
		return StateCollectingPayment, true
	case EventTenderCompleted:
		if state != StateCollectingPayment {
			return state, false
		}
		return StateCompleted, true
	case EventTenderCancelled:
		if state != StateCollectingPayment {
			return state, false
		}
		return StateReviewSummary, true
	case EventCancel:
		return StateCancelled, true
	}
	return state, false
}

func routeToReview(g Guards) FlowState {
	switch {
	case !g.HasLines:
		return StateBrowsing
	case !g.HasCustomer:
		return StateCustomerRequired
	default:
		return StateReviewSummary
	}
}
