package tickets_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbtest"
)

func str(s string) *string { return &s }

type orderSeed struct {
	paymentMethod   string
	paymentStatus   string
	stripePaymentID *string
	totalCents      int
	seats           []seatSeed
}

type seatSeed struct {
	email            string
	ticketPriceCents int
	amountPaidCents  int
	status           string
	profileEmail     string
}

func seedOrder(t *testing.T, db *gorm.DB, in orderSeed) *tickets.Order {
	t.Helper()
	now := time.Now()

	ord := tickets.Order{
		ID:              uuid.NewString(),
		PurchaserEmail:  "purchaser@example.com",
		PurchaserName:   "Pat Purchaser",
		TotalCents:      in.totalCents,
		Currency:        tickets.Currency,
		PaymentMethod:   in.paymentMethod,
		PaymentStatus:   in.paymentStatus,
		StripePaymentID: in.stripePaymentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.paymentMethod == tickets.PaymentMethodInvoice {
		ord.InvoiceNumber = str("AISF-2026-" + ord.ID[:4])
	}
	require.NoError(t, db.Create(&ord).Error)

	for _, seat := range in.seats {
		var profileID *string
		if seat.profileEmail != "" {
			p := profiles.Profile{
				ID:        uuid.NewString(),
				Email:     seat.profileEmail,
				Name:      "Linked Profile",
				CreatedAt: now,
				UpdatedAt: now,
			}
			require.NoError(t, db.Create(&p).Error)
			profileID = &p.ID
		}
		reg := tickets.Registration{
			ID:               uuid.NewString(),
			OrderID:          &ord.ID,
			ProfileID:        profileID,
			Name:             "Attendee",
			Email:            seat.email,
			TicketType:       "general",
			TicketPriceCents: seat.ticketPriceCents,
			AmountPaidCents:  seat.amountPaidCents,
			Status:           seat.status,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		require.NoError(t, db.Create(&reg).Error)
	}

	got, err := tickets.NewRepo(db).GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	return got
}

func paidCardOrder(t *testing.T, db *gorm.DB, seats ...seatSeed) *tickets.Order {
	t.Helper()
	total := 0
	for _, s := range seats {
		total += s.amountPaidCents
	}
	return seedOrder(t, db, orderSeed{
		paymentMethod:   tickets.PaymentMethodCard,
		paymentStatus:   tickets.OrderPaid,
		stripePaymentID: str("pi_test_123"),
		totalCents:      total,
		seats:           seats,
	})
}

func TestCancelOrder_NoRefund(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	ord := paidCardOrder(t, db,
		seatSeed{email: "a@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
		seatSeed{email: "b@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
	)

	res, err := svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID:        ord.ID,
		RequesterEmail: ord.PurchaserEmail,
		IssueRefund:    false,
	})
	require.NoError(t, err)
	assert.False(t, res.Refunded)
	assert.Empty(t, gw.Refunds, "no gateway call without a refund")

	got, err := tickets.NewRepo(db).GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.OrderCancelled, got.PaymentStatus)
	for _, reg := range got.Registrations {
		assert.Equal(t, tickets.RegistrationCancelled, reg.Status)
	}

	var events []tickets.OrderEvent
	require.NoError(t, db.Find(&events, "order_id = ?", ord.ID).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "cancel", events[0].Action)
}

func TestCancelOrder_WithRefund(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	ord := paidCardOrder(t, db,
		seatSeed{email: "a@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
		seatSeed{email: "b@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
	)

	res, err := svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID:        ord.ID,
		RequesterEmail: "Purchaser@Example.com", // ownership is case-insensitive
		IssueRefund:    true,
	})
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	assert.Equal(t, 30000, res.RefundedCents)

	require.Len(t, gw.Refunds, 1)
	assert.Equal(t, "pi_test_123", gw.Refunds[0].PaymentRef)
	assert.Equal(t, 0, gw.Refunds[0].AmountCents, "full refund requests no explicit amount")
	assert.Equal(t, "refund:order:"+ord.ID, gw.Refunds[0].IdempotencyKey)

	got, err := tickets.NewRepo(db).GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.OrderCancelled, got.PaymentStatus)
	for _, reg := range got.Registrations {
		assert.Equal(t, tickets.RegistrationRefunded, reg.Status)
	}

	var ref payments.Refund
	require.NoError(t, db.First(&ref, "order_id = ?", ord.ID).Error)
	assert.Equal(t, payments.StatusSucceeded, ref.Status)
	assert.Equal(t, 30000, ref.AmountCents)
	require.NotNil(t, ref.ProviderRef)
	assert.Equal(t, "re_mock_1", *ref.ProviderRef)
}

func TestCancelOrder_InvoiceRefundUnsupported(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	ord := seedOrder(t, db, orderSeed{
		paymentMethod: tickets.PaymentMethodInvoice,
		paymentStatus: tickets.OrderPending,
		totalCents:    30000,
		seats: []seatSeed{
			{email: "a@example.com", ticketPriceCents: 30000, amountPaidCents: 0, status: tickets.RegistrationPending},
		},
	})

	_, err := svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID:        ord.ID,
		RequesterEmail: ord.PurchaserEmail,
		IssueRefund:    true,
	})
	require.ErrorIs(t, err, tickets.ErrRefundUnsupported)

	// Rejected outright: nothing changed, nothing reached the gateway.
	assert.Empty(t, gw.Refunds)
	got, err := tickets.NewRepo(db).GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.OrderPending, got.PaymentStatus)
	assert.Equal(t, tickets.RegistrationPending, got.Registrations[0].Status)

	// Cancelling without a refund still works.
	_, err = svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID:        ord.ID,
		RequesterEmail: ord.PurchaserEmail,
		IssueRefund:    false,
	})
	require.NoError(t, err)
}

func TestCancelOrder_Authorization(t *testing.T) {
	db := dbtest.New(t)
	svc := tickets.NewCancelService(db, &payments.MockGateway{})

	ord := paidCardOrder(t, db,
		seatSeed{email: "attendee@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
	)

	_, err := svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID:        ord.ID,
		RequesterEmail: "",
		IssueRefund:    false,
	})
	require.ErrorIs(t, err, tickets.ErrNotAuthenticated)

	// Attendees do not own the order, only their own registration.
	_, err = svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID:        ord.ID,
		RequesterEmail: "attendee@example.com",
		IssueRefund:    false,
	})
	require.ErrorIs(t, err, tickets.ErrNotAuthorized)

	_, err = svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID:        ord.ID,
		RequesterEmail: "stranger@example.com",
		IssueRefund:    false,
	})
	require.ErrorIs(t, err, tickets.ErrNotAuthorized)
}

func TestCancelOrder_AlreadyCancelled(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	ord := paidCardOrder(t, db,
		seatSeed{email: "a@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
	)

	_, err := svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID: ord.ID, RequesterEmail: ord.PurchaserEmail, IssueRefund: true,
	})
	require.NoError(t, err)
	require.Len(t, gw.Refunds, 1)

	_, err = svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID: ord.ID, RequesterEmail: ord.PurchaserEmail, IssueRefund: true,
	})
	require.ErrorIs(t, err, tickets.ErrAlreadyTerminal)
	assert.Len(t, gw.Refunds, 1, "second attempt never reaches the gateway")
}

func TestCancelOrder_GatewayFailureLeavesEverythingLive(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{RefundErr: payments.ErrUnavailable}
	svc := tickets.NewCancelService(db, gw)

	ord := paidCardOrder(t, db,
		seatSeed{email: "a@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
	)

	_, err := svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID: ord.ID, RequesterEmail: ord.PurchaserEmail, IssueRefund: true,
	})
	require.ErrorIs(t, err, payments.ErrUnavailable)

	got, err := tickets.NewRepo(db).GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.OrderPaid, got.PaymentStatus)
	assert.Equal(t, tickets.RegistrationPaid, got.Registrations[0].Status)

	// The failed attempt is recorded for the audit trail.
	var ref payments.Refund
	require.NoError(t, db.First(&ref, "order_id = ?", ord.ID).Error)
	assert.Equal(t, payments.StatusFailed, ref.Status)
	require.NotNil(t, ref.ErrorMessage)

	// A retry goes back to the gateway; once it succeeds the order closes.
	gw.RefundErr = nil
	res, err := svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID: ord.ID, RequesterEmail: ord.PurchaserEmail, IssueRefund: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	assert.Len(t, gw.Refunds, 2)
}

func TestCancelOrder_RetryAfterCommitFailureSkipsGateway(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	ord := paidCardOrder(t, db,
		seatSeed{email: "a@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
	)

	// Simulate the window where the gateway refunded but the status commit
	// never landed: a succeeded refund row exists, the order is still paid.
	now := time.Now()
	require.NoError(t, db.Create(&payments.Refund{
		ID:             uuid.NewString(),
		OrderID:        &ord.ID,
		Provider:       "mock",
		ProviderRef:    str("re_prior"),
		PaymentRef:     "pi_test_123",
		Status:         payments.StatusSucceeded,
		AmountCents:    ord.TotalCents,
		Currency:       ord.Currency,
		IdempotencyKey: "refund:order:" + ord.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error)

	res, err := svc.CancelOrder(context.Background(), tickets.CancelOrderInput{
		OrderID: ord.ID, RequesterEmail: ord.PurchaserEmail, IssueRefund: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	assert.Equal(t, ord.TotalCents, res.RefundedCents)
	assert.Empty(t, gw.Refunds, "money already moved; only the statuses flip")

	got, err := tickets.NewRepo(db).GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.OrderCancelled, got.PaymentStatus)
	assert.Equal(t, tickets.RegistrationRefunded, got.Registrations[0].Status)
}

func TestCancelRegistration_PartialRefundUsesTicketPrice(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	ord := paidCardOrder(t, db,
		seatSeed{email: "a@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
		seatSeed{email: "b@example.com", ticketPriceCents: 15000, amountPaidCents: 15000, status: tickets.RegistrationPaid},
	)
	target := ord.Registrations[0]

	res, err := svc.CancelRegistration(context.Background(), tickets.CancelRegistrationInput{
		RegistrationID: target.ID,
		RequesterEmail: target.Email,
		IssueRefund:    true,
	})
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	assert.Equal(t, 15000, res.RefundedCents)

	require.Len(t, gw.Refunds, 1)
	assert.Equal(t, 15000, gw.Refunds[0].AmountCents, "one seat, not the whole order")
	assert.Equal(t, "pi_test_123", gw.Refunds[0].PaymentRef, "charged against the order's payment")
	assert.Equal(t, "refund:registration:"+target.ID, gw.Refunds[0].IdempotencyKey)

	got, err := tickets.NewRepo(db).GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.OrderPaid, got.PaymentStatus, "a live sibling keeps the order open")
	for _, reg := range got.Registrations {
		if reg.ID == target.ID {
			assert.Equal(t, tickets.RegistrationRefunded, reg.Status)
		} else {
			assert.Equal(t, tickets.RegistrationPaid, reg.Status)
		}
	}
}

func TestCancelRegistration_LegacyAmountPaidFallback(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	// Migrated row with no per-seat price recorded.
	ord := seedOrder(t, db, orderSeed{
		paymentMethod:   tickets.PaymentMethodCard,
		paymentStatus:   tickets.OrderPaid,
		stripePaymentID: str("pi_test_123"),
		totalCents:      20000,
		seats: []seatSeed{
			{email: "a@example.com", ticketPriceCents: 0, amountPaidCents: 20000, status: tickets.RegistrationPaid},
		},
	})

	res, err := svc.CancelRegistration(context.Background(), tickets.CancelRegistrationInput{
		RegistrationID: ord.Registrations[0].ID,
		RequesterEmail: "a@example.com",
		IssueRefund:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 20000, res.RefundedCents)
}

func TestCancelRegistration_CascadeClosesOrderOnLastSeat(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	ord := paidCardOrder(t, db,
		seatSeed{email: "a@example.com", ticketPriceCents: 10000, amountPaidCents: 10000, status: tickets.RegistrationPaid},
		seatSeed{email: "b@example.com", ticketPriceCents: 10000, amountPaidCents: 10000, status: tickets.RegistrationPaid},
		seatSeed{email: "c@example.com", ticketPriceCents: 10000, amountPaidCents: 10000, status: tickets.RegistrationPaid},
	)

	ctx := context.Background()
	for i, reg := range ord.Registrations {
		_, err := svc.CancelRegistration(ctx, tickets.CancelRegistrationInput{
			RegistrationID: reg.ID,
			RequesterEmail: reg.Email,
			IssueRefund:    false,
		})
		require.NoError(t, err)

		got, err := tickets.NewRepo(db).GetOrder(ctx, ord.ID)
		require.NoError(t, err)
		if i < len(ord.Registrations)-1 {
			assert.Equal(t, tickets.OrderPaid, got.PaymentStatus)
		} else {
			assert.Equal(t, tickets.OrderCancelled, got.PaymentStatus, "last seat cancels the order")
		}
	}

	var events []tickets.OrderEvent
	require.NoError(t, db.Find(&events, "order_id = ? AND action = ?", ord.ID, "cascade_cancel").Error)
	require.Len(t, events, 1)
}

func TestCancelRegistration_Authorization(t *testing.T) {
	db := dbtest.New(t)
	svc := tickets.NewCancelService(db, &payments.MockGateway{})

	ord := seedOrder(t, db, orderSeed{
		paymentMethod:   tickets.PaymentMethodCard,
		paymentStatus:   tickets.OrderPaid,
		stripePaymentID: str("pi_test_123"),
		totalCents:      15000,
		seats: []seatSeed{
			{
				email:            "attendee@example.com",
				ticketPriceCents: 15000,
				amountPaidCents:  15000,
				status:           tickets.RegistrationPaid,
				profileEmail:     "profile-owner@example.com",
			},
		},
	})
	regID := ord.Registrations[0].ID

	cases := []struct {
		name      string
		requester string
		wantErr   error
	}{
		{"attendee", "attendee@example.com", nil},
		{"attendee case-insensitive", "ATTENDEE@example.COM", nil},
		{"purchaser", "purchaser@example.com", nil},
		{"linked profile owner", "profile-owner@example.com", nil},
		{"same domain stranger", "b@example.com", tickets.ErrNotAuthorized},
		{"unauthenticated", "", tickets.ErrNotAuthenticated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Reset so each case sees a live registration.
			require.NoError(t, db.Model(&tickets.Registration{}).
				Where("id = ?", regID).
				Update("status", tickets.RegistrationPaid).Error)
			require.NoError(t, db.Model(&tickets.Order{}).
				Where("id = ?", ord.ID).
				Update("payment_status", tickets.OrderPaid).Error)

			_, err := svc.CancelRegistration(context.Background(), tickets.CancelRegistrationInput{
				RegistrationID: regID,
				RequesterEmail: tc.requester,
				IssueRefund:    false,
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCancelRegistration_StandaloneLegacyRow(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	svc := tickets.NewCancelService(db, gw)

	// Pre-order era: no parent order, payment recorded on the row itself.
	now := time.Now()
	reg := tickets.Registration{
		ID:              uuid.NewString(),
		Name:            "Early Bird",
		Email:           "early@example.com",
		TicketType:      "general",
		AmountPaidCents: 12000,
		Status:          tickets.RegistrationPaid,
		StripePaymentID: str("ch_legacy_1"),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&reg).Error)

	res, err := svc.CancelRegistration(context.Background(), tickets.CancelRegistrationInput{
		RegistrationID: reg.ID,
		RequesterEmail: reg.Email,
		IssueRefund:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 12000, res.RefundedCents)

	require.Len(t, gw.Refunds, 1)
	assert.Equal(t, "ch_legacy_1", gw.Refunds[0].PaymentRef)

	var got tickets.Registration
	require.NoError(t, db.First(&got, "id = ?", reg.ID).Error)
	assert.Equal(t, tickets.RegistrationRefunded, got.Status)
}

func TestCancelRegistration_NotFound(t *testing.T) {
	db := dbtest.New(t)
	svc := tickets.NewCancelService(db, &payments.MockGateway{})

	_, err := svc.CancelRegistration(context.Background(), tickets.CancelRegistrationInput{
		RegistrationID: uuid.NewString(),
		RequesterEmail: "someone@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
