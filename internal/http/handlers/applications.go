package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/applications"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/email"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/apperr"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/storage"
)

// maxAttachmentBytes caps speaker proposal uploads.
const maxAttachmentBytes = 10 << 20

type ApplicationsHandler struct {
	DB      *gorm.DB
	Svc     *applications.Service
	Storage storage.Storage
	Sender  email.Sender
	Log     *slog.Logger
}

func NewApplicationsHandler(db *gorm.DB, svc *applications.Service, st storage.Storage, sender email.Sender, log *slog.Logger) *ApplicationsHandler {
	return &ApplicationsHandler{DB: db, Svc: svc, Storage: st, Sender: sender, Log: log}
}

// SubmitProposal accepts a multipart form so a supporting document can ride
// along with the proposal fields.
func (h *ApplicationsHandler) SubmitProposal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}

	var req struct {
		Name     string `form:"name" binding:"required,max=255"`
		Title    string `form:"title" binding:"required,max=255"`
		Abstract string `form:"abstract" binding:"required"`
		Bio      string `form:"bio" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	var attachmentKey *string
	if fh, err := c.FormFile("attachment"); err == nil && fh != nil {
		if fh.Size > maxAttachmentBytes {
			middleware.Fail(c, apperr.InvalidErr("Attachment is too large (10 MB max).", nil))
			return
		}
		f, err := fh.Open()
		if err != nil {
			fail(c, err)
			return
		}
		defer f.Close()

		put, err := h.Storage.Put(c.Request.Context(), f, storage.PutInput{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
		if err != nil {
			fail(c, err)
			return
		}
		attachmentKey = &put.Key
	}

	p, err := h.Svc.SubmitProposal(c.Request.Context(), applications.SubmitProposalInput{
		Email:         user.Email,
		Name:          req.Name,
		Title:         req.Title,
		Abstract:      req.Abstract,
		Bio:           req.Bio,
		AttachmentKey: attachmentKey,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.notifyReceived(c, user.Email, req.Name, "speaker proposal")
	OK(c, http.StatusCreated, gin.H{"id": p.ID, "status": p.Status})
}

type submitFundingReq struct {
	Name                 string         `json:"name" binding:"required,max=255"`
	Affiliation          string         `json:"affiliation" binding:"required,max=255"`
	Motivation           string         `json:"motivation" binding:"required"`
	AmountRequestedCents int            `json:"amountRequestedCents" binding:"required,gt=0"`
	Answers              map[string]any `json:"answers"`
}

func (h *ApplicationsHandler) SubmitFunding(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}

	var req submitFundingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	answers, err := answersJSON(req.Answers)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Answers could not be encoded.", nil))
		return
	}

	a, err := h.Svc.SubmitFunding(c.Request.Context(), applications.SubmitFundingInput{
		Email:                user.Email,
		Name:                 req.Name,
		Affiliation:          req.Affiliation,
		Motivation:           req.Motivation,
		AmountRequestedCents: req.AmountRequestedCents,
		Answers:              answers,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.notifyReceived(c, user.Email, req.Name, "scholarship application")
	OK(c, http.StatusCreated, gin.H{"id": a.ID, "status": a.Status})
}

type updateProposalReq struct {
	Title    string `json:"title" binding:"required,max=255"`
	Abstract string `json:"abstract" binding:"required"`
	Bio      string `json:"bio" binding:"required"`
}

// UpdateProposal edits a pending proposal owned by the caller.
func (h *ApplicationsHandler) UpdateProposal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}

	var req updateProposalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	err := h.Svc.UpdateProposal(c.Request.Context(), c.Param("id"), user.Email, applications.UpdateProposalInput{
		Title:    req.Title,
		Abstract: req.Abstract,
		Bio:      req.Bio,
	})
	if err != nil {
		fail(c, err)
		return
	}
	OK(c, http.StatusOK, nil)
}

type updateFundingReq struct {
	Affiliation          string         `json:"affiliation" binding:"required,max=255"`
	Motivation           string         `json:"motivation" binding:"required"`
	AmountRequestedCents int            `json:"amountRequestedCents" binding:"required,gt=0"`
	Answers              map[string]any `json:"answers"`
}

func (h *ApplicationsHandler) UpdateFunding(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}

	var req updateFundingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	answers, err := answersJSON(req.Answers)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Answers could not be encoded.", nil))
		return
	}

	err = h.Svc.UpdateFunding(c.Request.Context(), c.Param("id"), user.Email, applications.UpdateFundingInput{
		Affiliation:          req.Affiliation,
		Motivation:           req.Motivation,
		AmountRequestedCents: req.AmountRequestedCents,
		Answers:              answers,
	})
	if err != nil {
		fail(c, err)
		return
	}
	OK(c, http.StatusOK, nil)
}

// DeleteProposal withdraws a pending proposal.
func (h *ApplicationsHandler) DeleteProposal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}
	if err := h.Svc.DeleteProposal(c.Request.Context(), c.Param("id"), user.Email); err != nil {
		fail(c, err)
		return
	}
	OK(c, http.StatusOK, nil)
}

func (h *ApplicationsHandler) DeleteFunding(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("You must be signed in."))
		return
	}
	if err := h.Svc.DeleteFunding(c.Request.Context(), c.Param("id"), user.Email); err != nil {
		fail(c, err)
		return
	}
	OK(c, http.StatusOK, nil)
}

func (h *ApplicationsHandler) notifyReceived(c *gin.Context, to, name, kind string) {
	if err := email.SendApplicationReceived(c.Request.Context(), h.Sender, to, name, kind); err != nil {
		h.Log.Warn("application_email_failed", "kind", kind, "err", err)
	}
}

func answersJSON(m map[string]any) (datatypes.JSON, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
