package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripe_Charge(t *testing.T) {
	var gotPath, gotIdem, gotAuth string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotIdem = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","status":"succeeded"}`))
	}))
	defer srv.Close()

	s := NewStripe("sk_test_abc", srv.URL)
	resp, err := s.Charge(context.Background(), ChargeRequest{
		AmountCents:    22500,
		Currency:       "AUD",
		CardToken:      "pm_card_visa",
		ReceiptEmail:   "buyer@example.com",
		IdempotencyKey: "charge:order:abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", resp.ProviderRef)

	assert.Equal(t, "/v1/payment_intents", gotPath)
	assert.Equal(t, "charge:order:abc", gotIdem)
	assert.Equal(t, "Bearer sk_test_abc", gotAuth)
	assert.Equal(t, "22500", gotForm["amount"][0])
	assert.Equal(t, "aud", gotForm["currency"][0])
	assert.Equal(t, "pm_card_visa", gotForm["payment_method"][0])
	assert.Equal(t, "true", gotForm["confirm"][0])
	assert.Equal(t, "buyer@example.com", gotForm["receipt_email"][0])
}

func TestStripe_Refund_PaymentRefKinds(t *testing.T) {
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/refunds", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		_, _ = w.Write([]byte(`{"id":"re_1","status":"succeeded"}`))
	}))
	defer srv.Close()

	s := NewStripe("sk_test_abc", srv.URL)
	ctx := context.Background()

	// Payment intent ref from checkout.
	_, err := s.Refund(ctx, RefundRequest{
		PaymentRef:     "pi_123",
		AmountCents:    15000,
		IdempotencyKey: "refund:registration:r1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", gotForm["payment_intent"][0])
	assert.Equal(t, "15000", gotForm["amount"][0])

	// Legacy charge ref, full refund (no amount field).
	_, err = s.Refund(ctx, RefundRequest{
		PaymentRef:     "ch_legacy",
		AmountCents:    0,
		IdempotencyKey: "refund:order:o1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ch_legacy", gotForm["charge"][0])
	assert.NotContains(t, gotForm, "amount")
}

func TestStripe_DeclineAndOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.PostForm.Get("payment_method") {
		case "pm_declined":
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	s := NewStripe("sk_test_abc", srv.URL)
	ctx := context.Background()

	_, err := s.Charge(ctx, ChargeRequest{AmountCents: 100, Currency: "AUD", CardToken: "pm_declined"})
	require.Error(t, err)
	require.True(t, IsDecline(err))
	var de *DeclineError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "card_declined", de.Code)

	_, err = s.Charge(ctx, ChargeRequest{AmountCents: 100, Currency: "AUD", CardToken: "pm_ok"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestStripe_MissingKey(t *testing.T) {
	s := NewStripe("", "")
	_, err := s.Refund(context.Background(), RefundRequest{PaymentRef: "pi_1"})
	require.ErrorIs(t, err, ErrUnavailable)
}
