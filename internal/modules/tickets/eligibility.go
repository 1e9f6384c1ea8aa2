package tickets

// CancellationInfo tells the presentation layer which actions to offer.
// It is computed by the same predicates the mutating operations use, so the
// two can never disagree.
type CancellationInfo struct {
	CanCancel     bool   `json:"canCancel"`
	CanRefund     bool   `json:"canRefund"`
	RefundMessage string `json:"refundMessage,omitempty"`
}

const (
	msgInvoiceManualRefund = "Invoice orders are refunded manually. Contact the organisers to arrange a refund; you can still cancel without one."
	msgNoCardPayment       = "No card payment is recorded, so there is nothing to refund."
	msgNothingPaid         = "Nothing was paid, so there is nothing to refund."
	msgAlreadyFinal        = "This has already been cancelled."
	msgOrderAlreadyFinal   = "This order has already been cancelled."
)

// orderRefundEligible: card payment, gateway reference present, amount > 0.
func orderRefundEligible(o *Order) bool {
	return o.PaymentMethod == PaymentMethodCard &&
		o.StripePaymentID != nil && *o.StripePaymentID != "" &&
		o.TotalCents > 0
}

// registrationRefundTerms resolves the per-seat refund amount and the
// gateway payment reference, or ok=false when no refund is possible.
// TicketPriceCents is the authoritative per-seat allocation for split
// refunds; AmountPaidCents is the fallback for legacy single-ticket rows
// that recorded the whole payment on the registration.
func registrationRefundTerms(reg *Registration) (amountCents int, paymentRef string, ok bool) {
	if reg.Order != nil {
		if !orderRefundEligible(reg.Order) || reg.AmountPaidCents <= 0 {
			return 0, "", false
		}
		amount := reg.TicketPriceCents
		if amount <= 0 {
			amount = reg.AmountPaidCents
		}
		return amount, *reg.Order.StripePaymentID, true
	}

	// Legacy standalone ticket: the payment reference lives on the row.
	if reg.StripePaymentID == nil || *reg.StripePaymentID == "" || reg.AmountPaidCents <= 0 {
		return 0, "", false
	}
	return reg.AmountPaidCents, *reg.StripePaymentID, true
}

func orderRefundMessage(o *Order) string {
	switch {
	case o.PaymentMethod == PaymentMethodInvoice:
		return msgInvoiceManualRefund
	case o.StripePaymentID == nil || *o.StripePaymentID == "":
		return msgNoCardPayment
	case o.TotalCents <= 0:
		return msgNothingPaid
	}
	return ""
}

func OrderCancellationInfo(o *Order) CancellationInfo {
	if o.PaymentStatus == OrderCancelled {
		return CancellationInfo{RefundMessage: msgOrderAlreadyFinal}
	}
	info := CancellationInfo{CanCancel: true}
	if orderRefundEligible(o) {
		info.CanRefund = true
	} else {
		info.RefundMessage = orderRefundMessage(o)
	}
	return info
}

func RegistrationCancellationInfo(reg *Registration) CancellationInfo {
	if Terminal(reg.Status) {
		return CancellationInfo{RefundMessage: msgAlreadyFinal}
	}
	info := CancellationInfo{CanCancel: true}
	if _, _, ok := registrationRefundTerms(reg); ok {
		info.CanRefund = true
		return info
	}
	if reg.Order != nil {
		info.RefundMessage = orderRefundMessage(reg.Order)
		if info.RefundMessage == "" && reg.AmountPaidCents <= 0 {
			info.RefundMessage = msgNothingPaid
		}
	} else {
		info.RefundMessage = msgNoCardPayment
	}
	return info
}
