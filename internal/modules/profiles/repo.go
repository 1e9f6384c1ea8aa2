package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).First(&p, "email = ?", identity.Normalize(email)).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureInTx finds or creates the profile for an email inside the caller's
// transaction. Name is only set on create; we never clobber a name the
// person chose earlier.
func EnsureInTx(ctx context.Context, tx *gorm.DB, email, name string) (*Profile, error) {
	norm := identity.Normalize(email)

	var p Profile
	err := tx.WithContext(ctx).First(&p, "email = ?", norm).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	p = Profile{
		ID:        uuid.NewString(),
		Email:     norm,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
