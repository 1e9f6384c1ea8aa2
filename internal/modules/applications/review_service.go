package applications

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbx"
)

// ReviewService applies the administrator-only one-way transition out of
// pending. From the applicant's perspective a decision is terminal.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService { return &ReviewService{db: db} }

const (
	KindProposal = "proposal"
	KindFunding  = "funding"

	ActionAccept  = "accept"  // proposals
	ActionApprove = "approve" // funding
	ActionReject  = "reject"
)

func nextStatus(kind, from, action string) (string, error) {
	if from != StatusPending {
		return "", ErrInvalidTransition
	}
	switch {
	case kind == KindProposal && action == ActionAccept:
		return StatusAccepted, nil
	case kind == KindFunding && action == ActionApprove:
		return StatusApproved, nil
	case action == ActionReject:
		return StatusRejected, nil
	default:
		return "", ErrInvalidTransition
	}
}

type ReviewInput struct {
	ID     string
	Kind   string // proposal|funding
	Action string // accept|approve|reject
	Actor  string // admin email, for the audit trail if one is added later
}

func (s *ReviewService) Review(ctx context.Context, in ReviewInput) error {
	switch in.Kind {
	case KindProposal:
		return s.reviewProposal(ctx, in)
	case KindFunding:
		return s.reviewFunding(ctx, in)
	default:
		return ErrInvalidTransition
	}
}

func (s *ReviewService) reviewProposal(ctx context.Context, in ReviewInput) error {
	return dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		var p SpeakerProposal
		if err := dbx.LockForUpdate(tx.WithContext(ctx)).First(&p, "id = ?", in.ID).Error; err != nil {
			return err
		}
		to, err := nextStatus(KindProposal, p.Status, in.Action)
		if err != nil {
			return err
		}
		return tx.WithContext(ctx).Model(&SpeakerProposal{}).
			Where("id = ? AND status = ?", p.ID, p.Status). // optimistic guard
			Updates(map[string]any{"status": to, "updated_at": time.Now()}).Error
	})
}

func (s *ReviewService) reviewFunding(ctx context.Context, in ReviewInput) error {
	return dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		var a FundingApplication
		if err := dbx.LockForUpdate(tx.WithContext(ctx)).First(&a, "id = ?", in.ID).Error; err != nil {
			return err
		}
		to, err := nextStatus(KindFunding, a.Status, in.Action)
		if err != nil {
			return err
		}
		return tx.WithContext(ctx).Model(&FundingApplication{}).
			Where("id = ? AND status = ?", a.ID, a.Status).
			Updates(map[string]any{"status": to, "updated_at": time.Now()}).Error
	})
}
