package payments

import (
	"errors"
	"fmt"
)

// ErrUnavailable: the gateway could not be reached or is misconfigured.
// Distinct from an explicit decline so callers can word the failure.
var ErrUnavailable = errors.New("payment gateway unavailable")

// DeclineError: the gateway answered and said no.
type DeclineError struct {
	Code    string
	Message string
}

func (e *DeclineError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway declined: %s (%s)", e.Message, e.Code)
	}
	return "gateway declined: " + e.Code
}

func IsDecline(err error) bool {
	var de *DeclineError
	return errors.As(err, &de)
}
