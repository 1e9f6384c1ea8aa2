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

type OrdersHandler struct {
	DB        *gorm.DB
	CancelSvc *tickets.CancelService
	Sender    email.Sender
	Log       *slog.Logger
}

func NewOrdersHandler(db *gorm.DB, cancelSvc *tickets.CancelService, sender email.Sender, log *slog.Logger) *OrdersHandler {
	return &OrdersHandler{DB: db, CancelSvc: cancelSvc, Sender: sender, Log: log}
}

// Detail returns an order with its registrations. Visible to the purchaser,
// any attendee on the order, and admins.
func (h *OrdersHandler) Detail(c *gin.Context) {
	o, ok := h.loadVisible(c)
	if !ok {
		return
	}
	OK(c, http.StatusOK, gin.H{"order": orderDetailVM(o)})
}

// CancellationInfo reports whether the order can still be cancelled and
// whether an automatic refund would accompany the cancellation. It uses the
// same predicates Cancel enforces.
func (h *OrdersHandler) CancellationInfo(c *gin.Context) {
	o, ok := h.loadVisible(c)
	if !ok {
		return
	}
	OK(c, http.StatusOK, gin.H{"cancellation": tickets.OrderCancellationInfo(o)})
}

type cancelReq struct {
	Refund bool `json:"refund"`
}

// Cancel cancels the order and all its live registrations, optionally
// refunding the card payment first.
func (h *OrdersHandler) Cancel(c *gin.Context) {
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

	res, err := h.CancelSvc.CancelOrder(c.Request.Context(), tickets.CancelOrderInput{
		OrderID:        c.Param("id"),
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

// notifyCancelled sends the confirmation email. Failures are logged, never
// surfaced; the cancellation has already committed.
func (h *OrdersHandler) notifyCancelled(c *gin.Context, orderID string, res tickets.CancelResult) {
	o, err := tickets.NewRepo(h.DB).GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Log.Warn("cancel_email_load_failed", "order_id", orderID, "err", err)
		return
	}

	ref := orderRef(o)
	ctx := c.Request.Context()
	if res.Refunded {
		err = email.SendRefundReceipt(ctx, h.Sender, o.PurchaserEmail, o.PurchaserName, ref,
			view.MoneyFromCents(res.RefundedCents, o.Currency))
	} else {
		err = email.SendCancellationConfirmation(ctx, h.Sender, o.PurchaserEmail, o.PurchaserName, ref)
	}
	if err != nil {
		h.Log.Warn("cancel_email_send_failed", "order_id", orderID, "err", err)
	}
}

// loadVisible fetches the order and enforces visibility. On failure it has
// already written the error.
func (h *OrdersHandler) loadVisible(c *gin.Context) (*tickets.Order, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return nil, false
	}

	o, err := tickets.NewRepo(h.DB).GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return nil, false
	}

	if user.Role != middleware.RoleAdmin && !orderVisibleTo(o, user.Email) {
		middleware.Fail(c, apperr.ForbiddenErr("You are not allowed to view this order."))
		return nil, false
	}
	return o, true
}

func orderVisibleTo(o *tickets.Order, requester string) bool {
	owners := []string{o.PurchaserEmail}
	for _, reg := range o.Registrations {
		owners = append(owners, reg.Email)
	}
	return identity.Owns(requester, owners...)
}

func orderRef(o *tickets.Order) string {
	if o.InvoiceNumber != nil && *o.InvoiceNumber != "" {
		return *o.InvoiceNumber
	}
	if len(o.ID) >= 8 {
		return o.ID[:8]
	}
	return o.ID
}

func orderDetailVM(o *tickets.Order) view.OrderDetail {
	vm := view.OrderDetail{
		ID:             o.ID,
		PurchaserEmail: o.PurchaserEmail,
		PurchaserName:  o.PurchaserName,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		Total:          view.MoneyFromCents(o.TotalCents, o.Currency),
		CreatedAt:      o.CreatedAt,
	}
	if o.DiscountCents > 0 {
		vm.Discount = view.MoneyFromCents(o.DiscountCents, o.Currency)
	}
	if o.InvoiceNumber != nil {
		vm.InvoiceNumber = *o.InvoiceNumber
	}
	if o.InvoiceDueDate != nil {
		vm.InvoiceDueDate = o.InvoiceDueDate.Format("2006-01-02")
	}
	if o.Organisation != nil {
		vm.Organisation = *o.Organisation
	}
	for _, reg := range o.Registrations {
		vm.Registrations = append(vm.Registrations, registrationRowVM(&reg, o.Currency))
	}
	return vm
}

func registrationRowVM(reg *tickets.Registration, currency string) view.RegistrationRow {
	return view.RegistrationRow{
		ID:         reg.ID,
		Name:       reg.Name,
		Email:      reg.Email,
		TicketType: reg.TicketType,
		Price:      view.MoneyFromCents(reg.TicketPriceCents, currency),
		Status:     reg.Status,
	}
}
