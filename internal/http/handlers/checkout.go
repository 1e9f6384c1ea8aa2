package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/checkout"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/apperr"
)

type CheckoutHandler struct {
	Svc *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{Svc: svc}
}

type attendeeReq struct {
	Name             string `json:"name" binding:"required,max=255"`
	Email            string `json:"email" binding:"required,email"`
	TicketType       string `json:"ticketType" binding:"required,max=64"`
	TicketPriceCents int    `json:"ticketPriceCents" binding:"gte=0"`
}

type createOrderReq struct {
	PurchaserName string        `json:"purchaserName" binding:"required,max=255"`
	PaymentMethod string        `json:"paymentMethod" binding:"required,oneof=card invoice"`
	DiscountCents int           `json:"discountCents" binding:"gte=0"`
	Attendees     []attendeeReq `json:"attendees" binding:"required,min=1,dive"`

	// Card path.
	CardToken      string `json:"cardToken"`
	IdempotencyKey string `json:"idempotencyKey"`

	// Invoice path.
	Organisation  string `json:"organisation"`
	ABN           string `json:"abn"`
	PurchaseOrder string `json:"purchaseOrder"`
}

// Create places an order for one or more tickets, charging the card up
// front or recording an invoice to be paid later.
func (h *CheckoutHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}

	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	in := checkout.CreateOrderInput{
		PurchaserEmail: user.Email,
		PurchaserName:  req.PurchaserName,
		PaymentMethod:  req.PaymentMethod,
		DiscountCents:  req.DiscountCents,
		CardToken:      req.CardToken,
		IdempotencyKey: req.IdempotencyKey,
		Organisation:   req.Organisation,
		ABN:            req.ABN,
		PurchaseOrder:  req.PurchaseOrder,
	}
	for _, a := range req.Attendees {
		in.Attendees = append(in.Attendees, checkout.AttendeeInput{
			Name:             a.Name,
			Email:            a.Email,
			TicketType:       a.TicketType,
			TicketPriceCents: a.TicketPriceCents,
		})
	}

	res, err := h.Svc.CreateOrder(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	payload := gin.H{
		"orderId":    res.OrderID,
		"totalCents": res.TotalCents,
		"paid":       res.Paid,
	}
	if res.InvoiceNumber != "" {
		payload["invoiceNumber"] = res.InvoiceNumber
	}
	OK(c, http.StatusCreated, payload)
}
