package workflow

// State is the explicit quote-to-order position of one intake session. The
// machine owns all transitions; nothing outside this package mutates state.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateQuotePending
	StateQuotesShown
	StateOrderPending
	StateOrderConfirmed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateQuotePending:
		return "quote-pending"
	case StateQuotesShown:
		return "quotes-shown"
	case StateOrderPending:
		return "order-pending"
	case StateOrderConfirmed:
		return "order-confirmed"
	default:
		return "unknown"
	}
}

// Pending reports whether a collaborator call is in flight. Submission and
// form edits are rejected while pending; this is the double-submit guard.
func (s State) Pending() bool {
	return s == StateQuotePending || s == StateOrderPending
}
