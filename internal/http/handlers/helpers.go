package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/validation"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/applications"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/checkout"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/apperr"
)

// OK writes the success envelope. data keys end up at the top level next to
// success and request_id.
func OK(c *gin.Context, status int, data gin.H) {
	payload := gin.H{
		"success":    true,
		"request_id": middleware.GetRequestID(c),
	}
	for k, v := range data {
		payload[k] = v
	}
	c.JSON(status, payload)
}

// svcError maps domain errors onto the public error taxonomy. Anything not
// recognised is wrapped as internal.
func svcError(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFoundErr("Not found.")

	case errors.Is(err, tickets.ErrNotAuthenticated),
		errors.Is(err, applications.ErrNotAuthenticated):
		return apperr.UnauthorizedErr("You must be signed in.")

	case errors.Is(err, tickets.ErrNotAuthorized),
		errors.Is(err, applications.ErrNotAuthorized):
		return apperr.ForbiddenErr("You are not allowed to modify this.")

	case errors.Is(err, tickets.ErrAlreadyTerminal):
		return apperr.ConflictErr("This has already been cancelled.")

	case errors.Is(err, tickets.ErrRefundUnsupported):
		return apperr.ConflictErr("This order cannot be refunded automatically. Cancel without a refund and contact the organisers.")

	case errors.Is(err, applications.ErrNotPending):
		return apperr.ConflictErr("This application has already been reviewed and can no longer be changed.")

	case errors.Is(err, applications.ErrInvalidTransition):
		return apperr.ConflictErr("That review action does not apply here.")

	case errors.Is(err, checkout.ErrNoAttendees):
		return apperr.InvalidErr("At least one attendee is required.", nil)

	case errors.Is(err, checkout.ErrBadPaymentMethod):
		return apperr.InvalidErr("Payment method must be card or invoice.", nil)

	case errors.Is(err, checkout.ErrInvoiceDetails):
		return apperr.InvalidErr("Invoice orders need an organisation name.", nil)

	case errors.Is(err, payments.ErrUnavailable):
		return apperr.GatewayErr("The payment provider is unavailable. Nothing was changed; please try again.", err)

	case payments.IsDecline(err):
		return apperr.GatewayErr("The payment provider declined the request. Nothing was changed.", err)

	default:
		return apperr.Wrap(err)
	}
}

func fail(c *gin.Context, err error) {
	middleware.Fail(c, svcError(err))
}

// failBind turns a bind error into a 422 with per-field messages.
func failBind(c *gin.Context, err error, dst any) {
	middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, dst)))
}
