package applications

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotAuthorized    = errors.New("not authorized")
	// ErrNotPending: the application has been reviewed; only pending
	// applications can be edited or withdrawn by the applicant.
	ErrNotPending = errors.New("application is not pending")
	// ErrInvalidTransition: review action does not apply to the current
	// status or entity kind.
	ErrInvalidTransition = errors.New("invalid application status transition")
)
