package applications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbx"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
)

// Service covers the applicant side of the application lifecycle: submit,
// edit and withdraw, all of which are only permitted while the application
// is pending. Review belongs to ReviewService.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// owns: the applicant's own email or the linked profile's email counts.
func owns(requester, email string, profile *profiles.Profile) bool {
	owners := []string{email}
	if profile != nil {
		owners = append(owners, profile.Email)
	}
	return identity.Owns(requester, owners...)
}

type SubmitProposalInput struct {
	Email         string
	Name          string
	Title         string
	Abstract      string
	Bio           string
	AttachmentKey *string
}

func (s *Service) SubmitProposal(ctx context.Context, in SubmitProposalInput) (*SpeakerProposal, error) {
	if in.Email == "" {
		return nil, ErrNotAuthenticated
	}

	var p SpeakerProposal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prof, err := profiles.EnsureInTx(ctx, tx, in.Email, in.Name)
		if err != nil {
			return err
		}
		now := time.Now()
		p = SpeakerProposal{
			ID:            uuid.NewString(),
			Email:         identity.Normalize(in.Email),
			Name:          in.Name,
			ProfileID:     &prof.ID,
			Title:         in.Title,
			Abstract:      in.Abstract,
			Bio:           in.Bio,
			AttachmentKey: in.AttachmentKey,
			Status:        StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.WithContext(ctx).Create(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type SubmitFundingInput struct {
	Email                string
	Name                 string
	Affiliation          string
	Motivation           string
	AmountRequestedCents int
	Answers              datatypes.JSON
}

func (s *Service) SubmitFunding(ctx context.Context, in SubmitFundingInput) (*FundingApplication, error) {
	if in.Email == "" {
		return nil, ErrNotAuthenticated
	}

	var a FundingApplication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prof, err := profiles.EnsureInTx(ctx, tx, in.Email, in.Name)
		if err != nil {
			return err
		}
		now := time.Now()
		a = FundingApplication{
			ID:                   uuid.NewString(),
			Email:                identity.Normalize(in.Email),
			Name:                 in.Name,
			ProfileID:            &prof.ID,
			Affiliation:          in.Affiliation,
			Motivation:           in.Motivation,
			AmountRequestedCents: in.AmountRequestedCents,
			AnswersJSON:          in.Answers,
			Status:               StatusPending,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		return tx.WithContext(ctx).Create(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type UpdateProposalInput struct {
	Title    string
	Abstract string
	Bio      string
}

// UpdateProposal overwrites the editable content fields. Status and id are
// immutable here.
func (s *Service) UpdateProposal(ctx context.Context, id, requesterEmail string, in UpdateProposalInput) error {
	if requesterEmail == "" {
		return ErrNotAuthenticated
	}
	return dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		var p SpeakerProposal
		if err := dbx.LockForUpdate(tx.WithContext(ctx)).Preload("Profile").First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if !owns(requesterEmail, p.Email, p.Profile) {
			return ErrNotAuthorized
		}
		if Decided(p.Status) {
			return ErrNotPending
		}
		return tx.WithContext(ctx).Model(&SpeakerProposal{}).
			Where("id = ? AND status = ?", p.ID, StatusPending).
			Updates(map[string]any{
				"title":      in.Title,
				"abstract":   in.Abstract,
				"bio":        in.Bio,
				"updated_at": time.Now(),
			}).Error
	})
}

type UpdateFundingInput struct {
	Affiliation          string
	Motivation           string
	AmountRequestedCents int
	Answers              datatypes.JSON
}

func (s *Service) UpdateFunding(ctx context.Context, id, requesterEmail string, in UpdateFundingInput) error {
	if requesterEmail == "" {
		return ErrNotAuthenticated
	}
	return dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		var a FundingApplication
		if err := dbx.LockForUpdate(tx.WithContext(ctx)).Preload("Profile").First(&a, "id = ?", id).Error; err != nil {
			return err
		}
		if !owns(requesterEmail, a.Email, a.Profile) {
			return ErrNotAuthorized
		}
		if Decided(a.Status) {
			return ErrNotPending
		}
		return tx.WithContext(ctx).Model(&FundingApplication{}).
			Where("id = ? AND status = ?", a.ID, StatusPending).
			Updates(map[string]any{
				"affiliation":            in.Affiliation,
				"motivation":             in.Motivation,
				"amount_requested_cents": in.AmountRequestedCents,
				"answers_json":           in.Answers,
				"updated_at":             time.Now(),
			}).Error
	})
}

// DeleteProposal permanently removes a pending proposal. No soft delete.
func (s *Service) DeleteProposal(ctx context.Context, id, requesterEmail string) error {
	if requesterEmail == "" {
		return ErrNotAuthenticated
	}
	return dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		var p SpeakerProposal
		if err := dbx.LockForUpdate(tx.WithContext(ctx)).Preload("Profile").First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if !owns(requesterEmail, p.Email, p.Profile) {
			return ErrNotAuthorized
		}
		if Decided(p.Status) {
			return ErrNotPending
		}
		return tx.WithContext(ctx).Delete(&SpeakerProposal{}, "id = ?", p.ID).Error
	})
}

func (s *Service) DeleteFunding(ctx context.Context, id, requesterEmail string) error {
	if requesterEmail == "" {
		return ErrNotAuthenticated
	}
	return dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		var a FundingApplication
		if err := dbx.LockForUpdate(tx.WithContext(ctx)).Preload("Profile").First(&a, "id = ?", id).Error; err != nil {
			return err
		}
		if !owns(requesterEmail, a.Email, a.Profile) {
			return ErrNotAuthorized
		}
		if Decided(a.Status) {
			return ErrNotPending
		}
		return tx.WithContext(ctx).Delete(&FundingApplication{}, "id = ?", a.ID).Error
	})
}
