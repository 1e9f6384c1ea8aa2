package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/apperr"
)

type AdminOrdersHandler struct {
	DB        *gorm.DB
	CancelSvc *tickets.CancelService
	Log       *slog.Logger
}

func NewAdminOrdersHandler(db *gorm.DB, cancelSvc *tickets.CancelService, log *slog.Logger) *AdminOrdersHandler {
	return &AdminOrdersHandler{DB: db, CancelSvc: cancelSvc, Log: log}
}

// List returns a filtered, paged order listing for the admin console.
func (h *AdminOrdersHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))

	res, err := tickets.NewRepo(h.DB).AdminList(c.Request.Context(), tickets.AdminListParams{
		Q:             c.Query("q"),
		PaymentStatus: c.Query("status"),
		PaymentMethod: c.Query("method"),
		Page:          page,
		PageSize:      size,
	})
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]gin.H, 0, len(res.Items))
	for _, o := range res.Items {
		items = append(items, gin.H{
			"order":        orderDetailVM(&o),
			"cancellation": tickets.OrderCancellationInfo(&o),
		})
	}
	OK(c, http.StatusOK, gin.H{"items": items, "total": res.Total})
}

// Detail returns one order with its full audit trail.
func (h *AdminOrdersHandler) Detail(c *gin.Context) {
	o, events, err := tickets.NewRepo(h.DB).AdminGetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	evs := make([]gin.H, 0, len(events))
	for _, ev := range events {
		evs = append(evs, gin.H{
			"actor":     ev.ActorEmail,
			"action":    ev.Action,
			"from":      ev.FromStatus,
			"to":        ev.ToStatus,
			"createdAt": ev.CreatedAt,
		})
	}
	OK(c, http.StatusOK, gin.H{
		"order":        orderDetailVM(o),
		"cancellation": tickets.OrderCancellationInfo(o),
		"events":       evs,
	})
}

// Cancel lets an admin cancel any order on a purchaser's behalf.
func (h *AdminOrdersHandler) Cancel(c *gin.Context) {
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

	// Admin acts as the purchaser for the ownership gate.
	o, err := tickets.NewRepo(h.DB).GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	res, err := h.CancelSvc.CancelOrder(c.Request.Context(), tickets.CancelOrderInput{
		OrderID:        o.ID,
		RequesterEmail: o.PurchaserEmail,
		IssueRefund:    req.Refund,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.Log.Info("admin_cancelled_order",
		"order_id", o.ID, "admin", user.Email, "refunded", res.Refunded)

	OK(c, http.StatusOK, gin.H{
		"refunded":      res.Refunded,
		"refundedCents": res.RefundedCents,
	})
}
