package payments

import "time"

const (
	StatusInitiated = "initiated"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Refund is the bookkeeping row for one gateway refund attempt. It is
// created before the gateway call and finalized after, so a crash between
// the two leaves an `initiated` row whose idempotency key a retry reuses.
type Refund struct {
	ID             string  `gorm:"type:char(36);primaryKey"`
	OrderID        *string `gorm:"type:char(36);index:ix_refunds_order_id"`
	RegistrationID *string `gorm:"type:char(36);index:ix_refunds_registration_id"`

	Provider    string  `gorm:"type:varchar(64);not null"`
	ProviderRef *string `gorm:"type:varchar(128)"`
	PaymentRef  string  `gorm:"type:varchar(128);not null"`

	Status         string `gorm:"type:varchar(32);not null"`
	AmountCents    int    `gorm:"not null"`
	Currency       string `gorm:"type:char(3);not null"`
	IdempotencyKey string `gorm:"type:varchar(64);not null;uniqueIndex:ux_refunds_idem_key"`

	ErrorMessage *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Refund) TableName() string { return "refunds" }
