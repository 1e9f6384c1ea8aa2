package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/applications"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/apperr"
	"github.com/good-ancestors/aisafetyforum-sub001/pkg/view"
)

type AdminApplicationsHandler struct {
	DB        *gorm.DB
	ReviewSvc *applications.ReviewService
}

func NewAdminApplicationsHandler(db *gorm.DB, reviewSvc *applications.ReviewService) *AdminApplicationsHandler {
	return &AdminApplicationsHandler{DB: db, ReviewSvc: reviewSvc}
}

// ListProposals lists speaker proposals, optionally filtered by status.
func (h *AdminApplicationsHandler) ListProposals(c *gin.Context) {
	items, err := applications.NewRepo(h.DB).AdminListProposals(c.Request.Context(), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}

	rows := make([]gin.H, 0, len(items))
	for _, p := range items {
		rows = append(rows, gin.H{
			"id":        p.ID,
			"email":     p.Email,
			"name":      p.Name,
			"title":     p.Title,
			"abstract":  p.Abstract,
			"status":    p.Status,
			"createdAt": p.CreatedAt,
		})
	}
	OK(c, http.StatusOK, gin.H{"items": rows})
}

// ListFunding lists scholarship applications, optionally filtered by status.
func (h *AdminApplicationsHandler) ListFunding(c *gin.Context) {
	items, err := applications.NewRepo(h.DB).AdminListFunding(c.Request.Context(), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}

	rows := make([]gin.H, 0, len(items))
	for _, a := range items {
		rows = append(rows, gin.H{
			"id":              a.ID,
			"email":           a.Email,
			"name":            a.Name,
			"affiliation":     a.Affiliation,
			"motivation":      a.Motivation,
			"amountRequested": view.MoneyFromCents(a.AmountRequestedCents, "AUD"),
			"status":          a.Status,
			"createdAt":       a.CreatedAt,
		})
	}
	OK(c, http.StatusOK, gin.H{"items": rows})
}

type reviewReq struct {
	Action string `json:"action" binding:"required,oneof=accept approve reject"`
}

// ReviewProposal accepts or rejects a pending speaker proposal.
func (h *AdminApplicationsHandler) ReviewProposal(c *gin.Context) {
	h.review(c, applications.KindProposal)
}

// ReviewFunding approves or rejects a pending scholarship application.
func (h *AdminApplicationsHandler) ReviewFunding(c *gin.Context) {
	h.review(c, applications.KindFunding)
}

func (h *AdminApplicationsHandler) review(c *gin.Context, kind string) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}

	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	err := h.ReviewSvc.Review(c.Request.Context(), applications.ReviewInput{
		ID:     c.Param("id"),
		Kind:   kind,
		Action: req.Action,
		Actor:  user.Email,
	})
	if err != nil {
		fail(c, err)
		return
	}
	OK(c, http.StatusOK, nil)
}
