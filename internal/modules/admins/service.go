package admins

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
)

var ErrBadCredentials = errors.New("invalid email or password")

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Authenticate verifies an admin login. The same error covers unknown
// email and wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Admin, error) {
	var a Admin
	err := s.db.WithContext(ctx).First(&a, "email = ?", identity.Normalize(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &a, nil
}

// Create provisions an admin account (used by cmd/tools/seed).
func (s *Service) Create(ctx context.Context, email, name, password string) (*Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	a := Admin{
		ID:           uuid.NewString(),
		Email:        identity.Normalize(email),
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
