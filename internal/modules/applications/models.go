package applications

import (
	"time"

	"gorm.io/datatypes"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted" // speaker proposals
	StatusApproved = "approved" // funding applications
	StatusRejected = "rejected"
)

// Decided reports whether an application has been reviewed. Decided
// applications are immutable and undeletable by the applicant.
func Decided(status string) bool {
	return status != StatusPending
}

// SpeakerProposal is a talk proposal for the forum programme.
type SpeakerProposal struct {
	ID        string  `gorm:"type:char(36);primaryKey"`
	Email     string  `gorm:"type:varchar(255);not null;index:ix_speaker_proposals_email"`
	Name      string  `gorm:"type:varchar(255);not null"`
	ProfileID *string `gorm:"type:char(36);index:ix_speaker_proposals_profile_id"`

	Title    string `gorm:"type:varchar(255);not null"`
	Abstract string `gorm:"type:text;not null"`
	Bio      string `gorm:"type:text;not null"`

	// Storage key of an uploaded supporting document, if any.
	AttachmentKey *string `gorm:"type:varchar(128)"`

	Status string `gorm:"type:varchar(16);not null;index:ix_speaker_proposals_status"`

	Profile *profiles.Profile `gorm:"foreignKey:ProfileID"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (SpeakerProposal) TableName() string { return "speaker_proposals" }

// FundingApplication is a scholarship/travel-support request.
type FundingApplication struct {
	ID        string  `gorm:"type:char(36);primaryKey"`
	Email     string  `gorm:"type:varchar(255);not null;index:ix_funding_applications_email"`
	Name      string  `gorm:"type:varchar(255);not null"`
	ProfileID *string `gorm:"type:char(36);index:ix_funding_applications_profile_id"`

	Affiliation          string `gorm:"type:varchar(255);not null"`
	Motivation           string `gorm:"type:text;not null"`
	AmountRequestedCents int    `gorm:"not null;default:0"`

	// Free-form questionnaire answers, shape owned by the form layer.
	AnswersJSON datatypes.JSON `gorm:"type:json"`

	Status string `gorm:"type:varchar(16);not null;index:ix_funding_applications_status"`

	Profile *profiles.Profile `gorm:"foreignKey:ProfileID"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (FundingApplication) TableName() string { return "funding_applications" }
