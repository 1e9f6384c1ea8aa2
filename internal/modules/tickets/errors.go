package tickets

import "errors"

var (
	// ErrNotAuthenticated: no caller identity was supplied.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotAuthorized: authenticated but not the purchaser, attendee or
	// linked profile owner.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrAlreadyTerminal: the order or registration is already cancelled or
	// refunded; calling cancel again mutates nothing.
	ErrAlreadyTerminal = errors.New("already cancelled or refunded")
	// ErrRefundUnsupported: a refund was requested but the order is not
	// refund-eligible (invoice payment, no gateway reference, or zero
	// amount). Plain cancellation is still available.
	ErrRefundUnsupported = errors.New("refund not supported for this order")
)
