package applications

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetProposal(ctx context.Context, id string) (*SpeakerProposal, error) {
	var p SpeakerProposal
	if err := r.db.WithContext(ctx).Preload("Profile").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetFunding(ctx context.Context, id string) (*FundingApplication, error) {
	var a FundingApplication
	if err := r.db.WithContext(ctx).Preload("Profile").First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) ListProposalsByEmail(ctx context.Context, email string) ([]SpeakerProposal, error) {
	var out []SpeakerProposal
	err := r.db.WithContext(ctx).
		Where("email = ?", identity.Normalize(email)).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Repo) ListFundingByEmail(ctx context.Context, email string) ([]FundingApplication, error) {
	var out []FundingApplication
	err := r.db.WithContext(ctx).
		Where("email = ?", identity.Normalize(email)).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// AdminListProposals lists proposals for review, optionally filtered by
// status.
func (r *Repo) AdminListProposals(ctx context.Context, status string) ([]SpeakerProposal, error) {
	q := r.db.WithContext(ctx).Model(&SpeakerProposal{})
	if s := strings.TrimSpace(status); s != "" {
		q = q.Where("status = ?", s)
	}
	var out []SpeakerProposal
	err := q.Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *Repo) AdminListFunding(ctx context.Context, status string) ([]FundingApplication, error) {
	q := r.db.WithContext(ctx).Model(&FundingApplication{})
	if s := strings.TrimSpace(status); s != "" {
		q = q.Where("status = ?", s)
	}
	var out []FundingApplication
	err := q.Order("created_at ASC").Find(&out).Error
	return out, err
}
