package checkout

import "errors"

var (
	ErrNoAttendees      = errors.New("checkout requires at least one attendee")
	ErrBadPaymentMethod = errors.New("unknown payment method")
	ErrInvoiceDetails   = errors.New("invoice checkout requires an organisation")
)
