package checkout_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/checkout"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/tickets"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbtest"
)

func twoAttendees() []checkout.AttendeeInput {
	return []checkout.AttendeeInput{
		{Name: "Alice", Email: "alice@example.com", TicketType: "general", TicketPriceCents: 15000},
		{Name: "Bob", Email: "bob@example.com", TicketType: "student", TicketPriceCents: 7500},
	}
}

func TestCreateOrder_CardChargesAndMarksPaid(t *testing.T) {
	db := dbtest.New(t)
	gw := &payments.MockGateway{NextChargeRef: "pi_new_1"}
	svc := checkout.NewService(db, gw)

	res, err := svc.CreateOrder(context.Background(), checkout.CreateOrderInput{
		PurchaserEmail: "Buyer@Example.com",
		PurchaserName:  "Buyer",
		PaymentMethod:  tickets.PaymentMethodCard,
		Attendees:      twoAttendees(),
		CardToken:      "tok_visa",
	})
	require.NoError(t, err)
	assert.True(t, res.Paid)
	assert.Equal(t, 22500, res.TotalCents)
	assert.Empty(t, res.InvoiceNumber)

	require.Len(t, gw.Charges, 1)
	assert.Equal(t, 22500, gw.Charges[0].AmountCents)
	assert.Equal(t, "charge:order:"+res.OrderID, gw.Charges[0].IdempotencyKey)

	ord, err := tickets.NewRepo(db).GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, tickets.OrderPaid, ord.PaymentStatus)
	assert.Equal(t, "buyer@example.com", ord.PurchaserEmail)
	require.NotNil(t, ord.StripePaymentID)
	assert.Equal(t, "pi_new_1", *ord.StripePaymentID)

	require.Len(t, ord.Registrations, 2)
	for _, reg := range ord.Registrations {
		assert.Equal(t, tickets.RegistrationPaid, reg.Status)
		assert.Equal(t, reg.TicketPriceCents, reg.AmountPaidCents)
		require.NotNil(t, reg.ProfileID, "each attendee gets a profile")
	}

	// Attendee profiles were created by email.
	_, err = profiles.NewRepo(db).FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
}

func TestCreateOrder_CardDeclineLeavesPendingOrder(t *testing.T) {
	db := dbtest.New(t)
	decline := &payments.DeclineError{Code: "card_declined", Message: "Your card was declined."}
	gw := &payments.MockGateway{ChargeErr: decline}
	svc := checkout.NewService(db, gw)

	_, err := svc.CreateOrder(context.Background(), checkout.CreateOrderInput{
		PurchaserEmail: "buyer@example.com",
		PurchaserName:  "Buyer",
		PaymentMethod:  tickets.PaymentMethodCard,
		Attendees:      twoAttendees(),
		CardToken:      "tok_chargeDeclined",
	})
	require.Error(t, err)
	assert.True(t, payments.IsDecline(err))

	// The pending order remains for a retry; nothing is marked paid.
	var orders []tickets.Order
	require.NoError(t, db.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, tickets.OrderPending, orders[0].PaymentStatus)
	assert.Nil(t, orders[0].StripePaymentID)
}

func TestCreateOrder_InvoiceAllocatesSequentialNumbers(t *testing.T) {
	db := dbtest.New(t)
	svc := checkout.NewService(db, &payments.MockGateway{})
	ctx := context.Background()

	in := checkout.CreateOrderInput{
		PurchaserEmail: "procurement@example.com",
		PurchaserName:  "Procurement",
		PaymentMethod:  tickets.PaymentMethodInvoice,
		Attendees:      twoAttendees(),
		Organisation:   "A University",
		ABN:            "12 345 678 901",
	}

	year := time.Now().Year()
	for i := 1; i <= 3; i++ {
		res, err := svc.CreateOrder(ctx, in)
		require.NoError(t, err)
		assert.False(t, res.Paid)
		assert.Equal(t, fmt.Sprintf("AISF-%d-%04d", year, i), res.InvoiceNumber)

		ord, err := tickets.NewRepo(db).GetOrder(ctx, res.OrderID)
		require.NoError(t, err)
		assert.Equal(t, tickets.OrderPending, ord.PaymentStatus)
		require.NotNil(t, ord.InvoiceDueDate)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), *ord.InvoiceDueDate, time.Minute)
		require.NotNil(t, ord.Organisation)
		assert.Equal(t, "A University", *ord.Organisation)
		for _, reg := range ord.Registrations {
			assert.Equal(t, tickets.RegistrationPending, reg.Status)
		}
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	db := dbtest.New(t)
	svc := checkout.NewService(db, &payments.MockGateway{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, checkout.CreateOrderInput{
		PurchaserEmail: "b@example.com",
		PaymentMethod:  tickets.PaymentMethodCard,
	})
	require.ErrorIs(t, err, checkout.ErrNoAttendees)

	_, err = svc.CreateOrder(ctx, checkout.CreateOrderInput{
		PurchaserEmail: "b@example.com",
		PaymentMethod:  "cheque",
		Attendees:      twoAttendees(),
	})
	require.ErrorIs(t, err, checkout.ErrBadPaymentMethod)

	_, err = svc.CreateOrder(ctx, checkout.CreateOrderInput{
		PurchaserEmail: "b@example.com",
		PaymentMethod:  tickets.PaymentMethodInvoice,
		Attendees:      twoAttendees(),
	})
	require.ErrorIs(t, err, checkout.ErrInvoiceDetails)
}

func TestCreateOrder_DiscountNeverGoesNegative(t *testing.T) {
	db := dbtest.New(t)
	svc := checkout.NewService(db, &payments.MockGateway{})

	res, err := svc.CreateOrder(context.Background(), checkout.CreateOrderInput{
		PurchaserEmail: "b@example.com",
		PurchaserName:  "B",
		PaymentMethod:  tickets.PaymentMethodCard,
		DiscountCents:  100000,
		Attendees:      twoAttendees(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalCents)
}
