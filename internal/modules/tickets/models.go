package tickets

import (
	"time"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
)

const (
	PaymentMethodCard    = "card"
	PaymentMethodInvoice = "invoice"

	// Order payment status. Transitions only pending→paid and
	// pending|paid→cancelled; never out of cancelled.
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"

	// Registration status. cancelled and refunded are terminal.
	RegistrationPending   = "pending"
	RegistrationPaid      = "paid"
	RegistrationCancelled = "cancelled"
	RegistrationRefunded  = "refunded"

	Currency = "AUD"
)

// Order is one checkout transaction, owning one or more registrations.
type Order struct {
	ID             string `gorm:"type:char(36);primaryKey"`
	PurchaserEmail string `gorm:"type:varchar(255);not null;index:ix_orders_purchaser_email"`
	PurchaserName  string `gorm:"type:varchar(255);not null"`

	TotalCents    int    `gorm:"not null"`
	DiscountCents int    `gorm:"not null;default:0"`
	Currency      string `gorm:"type:char(3);not null;default:AUD"`

	PaymentMethod string `gorm:"type:varchar(16);not null"`
	PaymentStatus string `gorm:"type:varchar(16);not null;index:ix_orders_payment_status"`

	// Set once a card charge succeeds.
	StripePaymentID *string `gorm:"type:varchar(128)"`

	// Invoice path only.
	InvoiceNumber  *string    `gorm:"type:varchar(32);uniqueIndex:ux_orders_invoice_number"`
	InvoiceDueDate *time.Time `gorm:"type:datetime(3)"`
	Organisation   *string    `gorm:"type:varchar(255)"`
	ABN            *string    `gorm:"type:varchar(32)"`
	PurchaseOrder  *string    `gorm:"type:varchar(64)"`

	Registrations []Registration `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "orders" }

// Registration is one ticket. OrderID is nullable for the legacy
// single-ticket flow, where the payment reference and full amount live on
// the registration itself.
type Registration struct {
	ID        string  `gorm:"type:char(36);primaryKey"`
	OrderID   *string `gorm:"type:char(36);index:ix_registrations_order_id"`
	ProfileID *string `gorm:"type:char(36);index:ix_registrations_profile_id"`

	Name  string `gorm:"type:varchar(255);not null"`
	Email string `gorm:"type:varchar(255);not null;index:ix_registrations_email"`

	TicketType       string `gorm:"type:varchar(64);not null"`
	TicketPriceCents int    `gorm:"not null"`
	AmountPaidCents  int    `gorm:"not null;default:0"`

	Status string `gorm:"type:varchar(16);not null;index:ix_registrations_status"`

	// Legacy single-ticket flow only.
	StripePaymentID *string `gorm:"type:varchar(128)"`

	Order   *Order            `gorm:"foreignKey:OrderID"`
	Profile *profiles.Profile `gorm:"foreignKey:ProfileID"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Registration) TableName() string { return "registrations" }

// Terminal reports whether a registration status permits no further change.
func Terminal(status string) bool {
	return status == RegistrationCancelled || status == RegistrationRefunded
}

// OrderEvent is the audit trail for order status changes.
type OrderEvent struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	OrderID    string    `gorm:"type:char(36);not null;index:ix_order_events_order_id"`
	ActorEmail string    `gorm:"type:varchar(255);not null"`
	Action     string    `gorm:"type:varchar(32);not null"`
	FromStatus string    `gorm:"type:varchar(16);not null"`
	ToStatus   string    `gorm:"type:varchar(16);not null"`
	Note       *string   `gorm:"type:varchar(255)"`
	CreatedAt  time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderEvent) TableName() string { return "order_events" }
