package tickets

import (
	"context"

	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		Preload("Registrations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetRegistration loads a registration with its parent order (including
// sibling registrations) and linked profile, the nesting the lifecycle
// authorization and cascade checks need.
func (r *Repo) GetRegistration(ctx context.Context, id string) (*Registration, error) {
	var reg Registration
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Registrations").
		Preload("Profile").
		First(&reg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListOrdersByPurchaser returns a person's orders, newest first.
func (r *Repo) ListOrdersByPurchaser(ctx context.Context, email string) ([]Order, error) {
	var out []Order
	err := r.db.WithContext(ctx).
		Preload("Registrations").
		Where("purchaser_email = ?", identity.Normalize(email)).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ListRegistrationsByAttendee returns the tickets held by an attendee email,
// covering both order-linked and legacy standalone rows.
func (r *Repo) ListRegistrationsByAttendee(ctx context.Context, email string) ([]Registration, error) {
	var out []Registration
	err := r.db.WithContext(ctx).
		Preload("Order").
		Where("email = ?", identity.Normalize(email)).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
