package payments

import "context"

type ChargeRequest struct {
	AmountCents    int
	Currency       string
	CardToken      string
	Description    string
	ReceiptEmail   string
	IdempotencyKey string
}

type ChargeResponse struct {
	ProviderRef string // e.g. Stripe payment intent / charge id
}

type RefundRequest struct {
	PaymentRef     string // provider reference of the original payment
	AmountCents    int    // 0 => full refund
	Currency       string
	Reason         string
	IdempotencyKey string
}

type RefundResponse struct {
	ProviderRef string // provider reference of the refund
}

// Gateway is the payment processor capability boundary. Both operations are
// synchronous: the provider either confirms the money moved or returns an
// error, and every call carries an idempotency key so retries never charge
// or refund twice.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResponse, error)
}
