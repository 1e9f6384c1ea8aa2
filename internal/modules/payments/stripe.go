package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeAPIBase = "https://api.stripe.com"

// Stripe talks to the Stripe HTTP API directly (form-encoded requests,
// Idempotency-Key header). Only the two endpoints the site needs.
type Stripe struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewStripe(apiKey, baseURL string) *Stripe {
	if baseURL == "" {
		baseURL = stripeAPIBase
	}
	return &Stripe{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error) {
	form := url.Values{}
	form.Set("amount", strconv.Itoa(req.AmountCents))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("payment_method", req.CardToken)
	form.Set("confirm", "true")
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("automatic_payment_methods[allow_redirects]", "never")
	if req.ReceiptEmail != "" {
		form.Set("receipt_email", req.ReceiptEmail)
	}
	if req.Description != "" {
		form.Set("description", req.Description)
	}

	obj, err := s.post(ctx, "/v1/payment_intents", form, req.IdempotencyKey)
	if err != nil {
		return ChargeResponse{}, err
	}
	return ChargeResponse{ProviderRef: obj.ID}, nil
}

func (s *Stripe) Refund(ctx context.Context, req RefundRequest) (RefundResponse, error) {
	form := url.Values{}
	// Legacy single-ticket rows hold charge ids; checkout stores intents.
	if strings.HasPrefix(req.PaymentRef, "ch_") {
		form.Set("charge", req.PaymentRef)
	} else {
		form.Set("payment_intent", req.PaymentRef)
	}
	if req.AmountCents > 0 {
		form.Set("amount", strconv.Itoa(req.AmountCents))
	}
	if req.Reason != "" {
		form.Set("reason", req.Reason)
	}

	obj, err := s.post(ctx, "/v1/refunds", form, req.IdempotencyKey)
	if err != nil {
		return RefundResponse{}, err
	}
	return RefundResponse{ProviderRef: obj.ID}, nil
}

type stripeObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Stripe) post(ctx context.Context, path string, form url.Values, idemKey string) (stripeObject, error) {
	if s.apiKey == "" {
		return stripeObject{}, fmt.Errorf("%w: STRIPE_SECRET_KEY not set", ErrUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return stripeObject{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return stripeObject{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return stripeObject{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var obj stripeObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return stripeObject{}, fmt.Errorf("%w: bad response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return stripeObject{}, fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		de := &DeclineError{Code: "request_failed"}
		if obj.Error != nil {
			de.Code = obj.Error.Code
			de.Message = obj.Error.Message
			if de.Code == "" {
				de.Code = obj.Error.Type
			}
		}
		return stripeObject{}, de
	}
	return obj, nil
}
