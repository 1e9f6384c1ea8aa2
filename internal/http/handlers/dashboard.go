package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/applications"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/apperr"
	"github.com/good-ancestors/aisafetyforum-sub001/pkg/view"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// Me aggregates everything tied to the signed-in email: orders placed,
// registrations held, and applications submitted.
func (h *DashboardHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}
	ctx := c.Request.Context()

	ticketRepo := tickets.NewRepo(h.DB)
	appRepo := applications.NewRepo(h.DB)

	orders, err := ticketRepo.ListOrdersByPurchaser(ctx, user.Email)
	if err != nil {
		fail(c, err)
		return
	}
	regs, err := ticketRepo.ListRegistrationsByAttendee(ctx, user.Email)
	if err != nil {
		fail(c, err)
		return
	}
	proposals, err := appRepo.ListProposalsByEmail(ctx, user.Email)
	if err != nil {
		fail(c, err)
		return
	}
	funding, err := appRepo.ListFundingByEmail(ctx, user.Email)
	if err != nil {
		fail(c, err)
		return
	}

	vm := view.Dashboard{Email: user.Email}
	for _, o := range orders {
		vm.Orders = append(vm.Orders, view.OrderListItem{
			ID:            o.ID,
			Number:        orderRef(&o),
			PaymentMethod: o.PaymentMethod,
			PaymentStatus: o.PaymentStatus,
			Total:         view.MoneyFromCents(o.TotalCents, o.Currency),
			TicketCount:   len(o.Registrations),
			CreatedAt:     o.CreatedAt,
		})
	}
	for _, reg := range regs {
		currency := tickets.Currency
		if reg.Order != nil {
			currency = reg.Order.Currency
		}
		vm.Registrations = append(vm.Registrations, registrationRowVM(&reg, currency))
	}
	for _, p := range proposals {
		vm.Proposals = append(vm.Proposals, view.ProposalRow{
			ID:        p.ID,
			Title:     p.Title,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
		})
	}
	for _, a := range funding {
		vm.Funding = append(vm.Funding, view.FundingRow{
			ID:              a.ID,
			Affiliation:     a.Affiliation,
			AmountRequested: view.MoneyFromCents(a.AmountRequestedCents, tickets.Currency),
			Status:          a.Status,
			CreatedAt:       a.CreatedAt,
		})
	}

	OK(c, http.StatusOK, gin.H{"dashboard": vm})
}
