package applications_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/applications"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbtest"
)

func submitProposal(t *testing.T, db *gorm.DB, email string) *applications.SpeakerProposal {
	t.Helper()
	p, err := applications.NewService(db).SubmitProposal(context.Background(), applications.SubmitProposalInput{
		Email:    email,
		Name:     "Sam Speaker",
		Title:    "Interpretability at scale",
		Abstract: "What we know and what we do not.",
		Bio:      "Researcher.",
	})
	require.NoError(t, err)
	return p
}

func TestSubmitProposal_CreatesPendingWithProfile(t *testing.T) {
	db := dbtest.New(t)

	p := submitProposal(t, db, "Sam@Example.com")

	assert.Equal(t, applications.StatusPending, p.Status)
	assert.Equal(t, "sam@example.com", p.Email, "stored email is normalized")
	require.NotNil(t, p.ProfileID)

	prof, err := profiles.NewRepo(db).FindByEmail(context.Background(), "sam@example.com")
	require.NoError(t, err)
	assert.Equal(t, *p.ProfileID, prof.ID)

	// A second submission reuses the profile rather than duplicating it.
	p2 := submitProposal(t, db, "sam@example.com")
	assert.Equal(t, *p.ProfileID, *p2.ProfileID)
}

func TestUpdateProposal_OwnerOnly(t *testing.T) {
	db := dbtest.New(t)
	svc := applications.NewService(db)
	ctx := context.Background()

	p := submitProposal(t, db, "a@example.com")

	upd := applications.UpdateProposalInput{
		Title:    "Revised title",
		Abstract: "Revised abstract.",
		Bio:      "Revised bio.",
	}

	// A different mailbox on the same domain is still a different person.
	err := svc.UpdateProposal(ctx, p.ID, "b@example.com", upd)
	require.ErrorIs(t, err, applications.ErrNotAuthorized)

	err = svc.UpdateProposal(ctx, p.ID, "", upd)
	require.ErrorIs(t, err, applications.ErrNotAuthenticated)

	// Owner, any casing.
	err = svc.UpdateProposal(ctx, p.ID, "A@EXAMPLE.COM", upd)
	require.NoError(t, err)

	got, err := applications.NewRepo(db).GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Revised title", got.Title)
	assert.Equal(t, applications.StatusPending, got.Status, "editing never touches status")
}

func TestUpdateProposal_DecidedIsImmutable(t *testing.T) {
	db := dbtest.New(t)
	svc := applications.NewService(db)
	ctx := context.Background()

	p := submitProposal(t, db, "a@example.com")
	require.NoError(t, applications.NewReviewService(db).Review(ctx, applications.ReviewInput{
		ID: p.ID, Kind: applications.KindProposal, Action: applications.ActionAccept, Actor: "admin@example.org",
	}))

	err := svc.UpdateProposal(ctx, p.ID, "a@example.com", applications.UpdateProposalInput{
		Title: "Too late", Abstract: "x", Bio: "y",
	})
	require.ErrorIs(t, err, applications.ErrNotPending)

	got, err := applications.NewRepo(db).GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Interpretability at scale", got.Title)
	assert.Equal(t, applications.StatusAccepted, got.Status)
}

func TestDeleteProposal(t *testing.T) {
	db := dbtest.New(t)
	svc := applications.NewService(db)
	ctx := context.Background()

	p := submitProposal(t, db, "a@example.com")

	require.ErrorIs(t, svc.DeleteProposal(ctx, p.ID, "b@example.com"), applications.ErrNotAuthorized)

	require.NoError(t, svc.DeleteProposal(ctx, p.ID, "a@example.com"))
	_, err := applications.NewRepo(db).GetProposal(ctx, p.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Decided applications cannot be withdrawn.
	p2 := submitProposal(t, db, "a@example.com")
	require.NoError(t, applications.NewReviewService(db).Review(ctx, applications.ReviewInput{
		ID: p2.ID, Kind: applications.KindProposal, Action: applications.ActionReject, Actor: "admin@example.org",
	}))
	require.ErrorIs(t, svc.DeleteProposal(ctx, p2.ID, "a@example.com"), applications.ErrNotPending)
}

func TestFundingLifecycle(t *testing.T) {
	db := dbtest.New(t)
	svc := applications.NewService(db)
	ctx := context.Background()

	a, err := svc.SubmitFunding(ctx, applications.SubmitFundingInput{
		Email:                "grad@example.com",
		Name:                 "Grad Student",
		Affiliation:          "A University",
		Motivation:           "Travel support.",
		AmountRequestedCents: 80000,
	})
	require.NoError(t, err)
	assert.Equal(t, applications.StatusPending, a.Status)

	err = svc.UpdateFunding(ctx, a.ID, "grad@example.com", applications.UpdateFundingInput{
		Affiliation:          "A University",
		Motivation:           "Travel and accommodation support.",
		AmountRequestedCents: 120000,
	})
	require.NoError(t, err)

	got, err := applications.NewRepo(db).GetFunding(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 120000, got.AmountRequestedCents)

	require.NoError(t, applications.NewReviewService(db).Review(ctx, applications.ReviewInput{
		ID: a.ID, Kind: applications.KindFunding, Action: applications.ActionApprove, Actor: "admin@example.org",
	}))

	err = svc.UpdateFunding(ctx, a.ID, "grad@example.com", applications.UpdateFundingInput{
		Affiliation: "A University", Motivation: "x", AmountRequestedCents: 1,
	})
	require.ErrorIs(t, err, applications.ErrNotPending)
	require.ErrorIs(t, svc.DeleteFunding(ctx, a.ID, "grad@example.com"), applications.ErrNotPending)
}

func TestReview_Transitions(t *testing.T) {
	db := dbtest.New(t)
	review := applications.NewReviewService(db)
	ctx := context.Background()

	p := submitProposal(t, db, "a@example.com")

	// Funding-only action on a proposal.
	err := review.Review(ctx, applications.ReviewInput{
		ID: p.ID, Kind: applications.KindProposal, Action: applications.ActionApprove, Actor: "admin@example.org",
	})
	require.ErrorIs(t, err, applications.ErrInvalidTransition)

	require.NoError(t, review.Review(ctx, applications.ReviewInput{
		ID: p.ID, Kind: applications.KindProposal, Action: applications.ActionAccept, Actor: "admin@example.org",
	}))

	// Decisions are one-way.
	err = review.Review(ctx, applications.ReviewInput{
		ID: p.ID, Kind: applications.KindProposal, Action: applications.ActionReject, Actor: "admin@example.org",
	})
	require.ErrorIs(t, err, applications.ErrInvalidTransition)

	got, err := applications.NewRepo(db).GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, applications.StatusAccepted, got.Status)
}
