package admins

import "time"

// Admin is an organiser account for the admin console. Attendee login is
// handled by the external auth provider; admins carry a local password.
type Admin struct {
	ID           string `gorm:"type:char(36);primaryKey"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:ux_admins_email"`
	Name         string `gorm:"type:varchar(255);not null"`
	PasswordHash string `gorm:"type:varchar(128);not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Admin) TableName() string { return "admins" }
