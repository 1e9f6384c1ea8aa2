package profiles

import "time"

// Profile is a person's durable identity, keyed by lowercased email.
// Registrations and applications link back to it when their email matches.
type Profile struct {
	ID           string  `gorm:"type:char(36);primaryKey"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex:ux_profiles_email"`
	Name         string  `gorm:"type:varchar(255);not null"`
	Organisation *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Profile) TableName() string { return "profiles" }
