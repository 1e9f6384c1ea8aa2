package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbx"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
)

// Service creates the order + registration rows the lifecycle manager
// later operates on. Card orders charge synchronously through the gateway
// (persist pending, charge, then mark paid); invoice orders get an invoice
// number and a 14-day due date and stay pending until paid out of band.
type Service struct {
	db      *gorm.DB
	gateway payments.Gateway
}

func NewService(db *gorm.DB, gw payments.Gateway) *Service {
	return &Service{db: db, gateway: gw}
}

type AttendeeInput struct {
	Name             string
	Email            string
	TicketType       string
	TicketPriceCents int
}

type CreateOrderInput struct {
	PurchaserEmail string
	PurchaserName  string
	PaymentMethod  string // card|invoice
	DiscountCents  int
	Attendees      []AttendeeInput

	// Card path.
	CardToken      string
	IdempotencyKey string

	// Invoice path.
	Organisation  string
	ABN           string
	PurchaseOrder string
}

type CreateOrderResult struct {
	OrderID       string
	TotalCents    int
	InvoiceNumber string
	Paid          bool
}

func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if len(in.Attendees) == 0 {
		return CreateOrderResult{}, ErrNoAttendees
	}

	total := -in.DiscountCents
	for _, a := range in.Attendees {
		total += a.TicketPriceCents
	}
	if total < 0 {
		total = 0
	}

	switch in.PaymentMethod {
	case tickets.PaymentMethodCard:
		return s.createCardOrder(ctx, in, total)
	case tickets.PaymentMethodInvoice:
		if in.Organisation == "" {
			return CreateOrderResult{}, ErrInvoiceDetails
		}
		return s.createInvoiceOrder(ctx, in, total)
	default:
		return CreateOrderResult{}, ErrBadPaymentMethod
	}
}

// createCardOrder follows the same phase split as the cancellation flow:
// rows first, gateway second, paid status last.
func (s *Service) createCardOrder(ctx context.Context, in CreateOrderInput, total int) (CreateOrderResult, error) {
	ord, err := s.persistOrder(ctx, in, total, nil, nil)
	if err != nil {
		return CreateOrderResult{}, err
	}

	idemKey := in.IdempotencyKey
	if idemKey == "" {
		idemKey = "charge:order:" + ord.ID
	}
	resp, gerr := s.gateway.Charge(ctx, payments.ChargeRequest{
		AmountCents:    total,
		Currency:       tickets.Currency,
		CardToken:      in.CardToken,
		Description:    "Australian AI Safety Forum tickets",
		ReceiptEmail:   ord.PurchaserEmail,
		IdempotencyKey: idemKey,
	})
	if gerr != nil {
		// The pending order stays for retry/support; no money moved.
		return CreateOrderResult{}, gerr
	}

	err = dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.WithContext(ctx).Model(&tickets.Order{}).
			Where("id = ? AND payment_status = ?", ord.ID, tickets.OrderPending).
			Updates(map[string]any{
				"payment_status":    tickets.OrderPaid,
				"stripe_payment_id": resp.ProviderRef,
				"updated_at":        now,
			}).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Model(&tickets.Registration{}).
			Where("order_id = ? AND status = ?", ord.ID, tickets.RegistrationPending).
			Updates(map[string]any{"status": tickets.RegistrationPaid, "updated_at": now}).Error
	})
	if err != nil {
		return CreateOrderResult{}, err
	}

	return CreateOrderResult{OrderID: ord.ID, TotalCents: total, Paid: true}, nil
}

func (s *Service) createInvoiceOrder(ctx context.Context, in CreateOrderInput, total int) (CreateOrderResult, error) {
	due := time.Now().AddDate(0, 0, 14)
	var number string

	ord, err := s.persistOrder(ctx, in, total, &due, &number)
	if err != nil {
		return CreateOrderResult{}, err
	}
	return CreateOrderResult{OrderID: ord.ID, TotalCents: total, InvoiceNumber: number}, nil
}

// persistOrder writes the order and its registrations in one transaction,
// linking each registration to a profile by attendee email. For invoice
// orders it also allocates the next AISF-<year>-<seq> number inside the
// same transaction (the row count is tiny for an event site).
func (s *Service) persistOrder(ctx context.Context, in CreateOrderInput, total int, invoiceDue *time.Time, invoiceNumber *string) (*tickets.Order, error) {
	now := time.Now()
	ord := tickets.Order{
		ID:             uuid.NewString(),
		PurchaserEmail: identity.Normalize(in.PurchaserEmail),
		PurchaserName:  in.PurchaserName,
		TotalCents:     total,
		DiscountCents:  in.DiscountCents,
		Currency:       tickets.Currency,
		PaymentMethod:  in.PaymentMethod,
		PaymentStatus:  tickets.OrderPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if invoiceDue != nil {
		ord.InvoiceDueDate = invoiceDue
		ord.Organisation = optional(in.Organisation)
		ord.ABN = optional(in.ABN)
		ord.PurchaseOrder = optional(in.PurchaseOrder)
	}

	err := dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		if invoiceDue != nil {
			n, err := nextInvoiceNumberInTx(ctx, tx, now)
			if err != nil {
				return err
			}
			ord.InvoiceNumber = &n
			if invoiceNumber != nil {
				*invoiceNumber = n
			}
		}

		if err := tx.WithContext(ctx).Create(&ord).Error; err != nil {
			return err
		}

		for _, a := range in.Attendees {
			prof, err := profiles.EnsureInTx(ctx, tx, a.Email, a.Name)
			if err != nil {
				return err
			}
			reg := tickets.Registration{
				ID:               uuid.NewString(),
				OrderID:          &ord.ID,
				ProfileID:        &prof.ID,
				Name:             a.Name,
				Email:            identity.Normalize(a.Email),
				TicketType:       a.TicketType,
				TicketPriceCents: a.TicketPriceCents,
				AmountPaidCents:  a.TicketPriceCents,
				Status:           tickets.RegistrationPending,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := tx.WithContext(ctx).Create(&reg).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

func nextInvoiceNumberInTx(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("AISF-%d-", now.Year())
	var count int64
	err := dbx.LockForUpdate(tx.WithContext(ctx).Model(&tickets.Order{})).
		Where("invoice_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
