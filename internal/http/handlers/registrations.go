package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/email"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/apperr"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
	"github.com/good-ancestors/aisafetyforum-sub001/pkg/view"
)

type RegistrationsHandler struct {
	DB        *gorm.DB
	CancelSvc *tickets.CancelService
	Sender    email.Sender
	Log       *slog.Logger
}

func NewRegistrationsHandler(db *gorm.DB, cancelSvc *tickets.CancelService, sender email.Sender, log *slog.Logger) *RegistrationsHandler {
	return &RegistrationsHandler{DB: db, CancelSvc: cancelSvc, Sender: sender, Log: log}
}

// Detail returns one registration. Visible to the attendee, the purchaser of
// the parent order, the linked profile owner, and admins.
func (h *RegistrationsHandler) Detail(c *gin.Context) {
	reg, ok := h.loadVisible(c)
	if !ok {
		return
	}
	currency := tickets.Currency
	if reg.Order != nil {
		currency = reg.Order.Currency
	}
	OK(c, http.StatusOK, gin.H{"registration": registrationRowVM(reg, currency)})
}

// CancellationInfo mirrors the order endpoint for a single seat.
func (h *RegistrationsHandler) CancellationInfo(c *gin.Context) {
	reg, ok := h.loadVisible(c)
	if !ok {
		return
	}
	OK(c, http.StatusOK, gin.H{"cancellation": tickets.RegistrationCancellationInfo(reg)})
}

// Cancel cancels one registration, optionally refunding its seat price to
// the order's card. When the last live registration goes, the order is
// cancelled with it.
func (h *RegistrationsHandler) Cancel(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}

	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	res, err := h.CancelSvc.CancelRegistration(c.Request.Context(), tickets.CancelRegistrationInput{
		RegistrationID: c.Param("id"),
		RequesterEmail: user.Email,
		IssueRefund:    req.Refund,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.notifyCancelled(c, c.Param("id"), res)

	OK(c, http.StatusOK, gin.H{
		"refunded":      res.Refunded,
		"refundedCents": res.RefundedCents,
	})
}

func (h *RegistrationsHandler) notifyCancelled(c *gin.Context, regID string, res tickets.CancelResult) {
	reg, err := tickets.NewRepo(h.DB).GetRegistration(c.Request.Context(), regID)
	if err != nil {
		h.Log.Warn("cancel_email_load_failed", "registration_id", regID, "err", err)
		return
	}

	ref := reg.ID
	currency := tickets.Currency
	if reg.Order != nil {
		ref = orderRef(reg.Order)
		currency = reg.Order.Currency
	}

	ctx := c.Request.Context()
	if res.Refunded {
		err = email.SendRefundReceipt(ctx, h.Sender, reg.Email, reg.Name, ref,
			view.MoneyFromCents(res.RefundedCents, currency))
	} else {
		err = email.SendCancellationConfirmation(ctx, h.Sender, reg.Email, reg.Name, ref)
	}
	if err != nil {
		h.Log.Warn("cancel_email_send_failed", "registration_id", regID, "err", err)
	}
}

func (h *RegistrationsHandler) loadVisible(c *gin.Context) (*tickets.Registration, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return nil, false
	}

	reg, err := tickets.NewRepo(h.DB).GetRegistration(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return nil, false
	}

	if user.Role != middleware.RoleAdmin && !registrationVisibleTo(reg, user.Email) {
		middleware.Fail(c, apperr.ForbiddenErr("You are not allowed to view this registration."))
		return nil, false
	}
	return reg, true
}

func registrationVisibleTo(reg *tickets.Registration, requester string) bool {
	owners := []string{reg.Email}
	if reg.Order != nil {
		owners = append(owners, reg.Order.PurchaserEmail)
	}
	if reg.Profile != nil {
		owners = append(owners, reg.Profile.Email)
	}
	return identity.Owns(requester, owners...)
}
