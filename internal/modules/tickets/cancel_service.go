package tickets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/profiles"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbx"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
)

// CancelService is the sole mutator of order/registration status after
// checkout. Refund flows run in three phases, matching the payment
// bookkeeping elsewhere in this codebase: phase-1 locks and records an
// `initiated` refund row, phase-2 calls the gateway outside any
// transaction, phase-3 finalizes statuses atomically. The refund row's
// idempotency key is deterministic per entity, so a retry after a failed
// finalize cannot double-refund at the gateway.
type CancelService struct {
	db      *gorm.DB
	gateway payments.Gateway
}

func NewCancelService(db *gorm.DB, gw payments.Gateway) *CancelService {
	return &CancelService{db: db, gateway: gw}
}

type CancelOrderInput struct {
	OrderID        string
	RequesterEmail string
	IssueRefund    bool
}

type CancelRegistrationInput struct {
	RegistrationID string
	RequesterEmail string
	IssueRefund    bool
}

type CancelResult struct {
	Refunded      bool
	RefundID      string
	RefundedCents int
}

const txAttempts = 3

// CancelOrder cancels an order and every live registration under it.
// With IssueRefund the full card payment is refunded first; the status flip
// only commits after the gateway confirms.
func (s *CancelService) CancelOrder(ctx context.Context, in CancelOrderInput) (CancelResult, error) {
	if in.RequesterEmail == "" {
		return CancelResult{}, ErrNotAuthenticated
	}

	if !in.IssueRefund {
		err := dbx.WithTxRetry(ctx, s.db, txAttempts, func(tx *gorm.DB) error {
			ord, err := s.lockOrder(ctx, tx, in.OrderID)
			if err != nil {
				return err
			}
			if err := s.gateOrder(ord, in.RequesterEmail); err != nil {
				return err
			}
			return s.cancelOrderRowsInTx(ctx, tx, ord, in.RequesterEmail, RegistrationCancelled, "cancel")
		})
		return CancelResult{}, err
	}

	// Phase-1: lock, authorize, gate, record initiated refund.
	var (
		ord *Order
		ref payments.Refund
	)
	err := dbx.WithTxRetry(ctx, s.db, txAttempts, func(tx *gorm.DB) error {
		var err error
		ord, err = s.lockOrder(ctx, tx, in.OrderID)
		if err != nil {
			return err
		}
		if err := s.gateOrder(ord, in.RequesterEmail); err != nil {
			return err
		}
		if !orderRefundEligible(ord) {
			return ErrRefundUnsupported
		}
		ref, err = upsertRefundInTx(ctx, tx, payments.Refund{
			OrderID:        &ord.ID,
			Provider:       s.gateway.Name(),
			PaymentRef:     *ord.StripePaymentID,
			AmountCents:    ord.TotalCents,
			Currency:       ord.Currency,
			IdempotencyKey: "refund:order:" + ord.ID,
		})
		return err
	})
	if err != nil {
		return CancelResult{}, err
	}

	if ref.Status == payments.StatusSucceeded {
		// A previous attempt refunded the money but did not get to flip the
		// statuses; finish that instead of calling the gateway again.
		if err := s.finalizeOrderRefund(ctx, in, ref, ""); err != nil {
			return CancelResult{}, err
		}
		return CancelResult{Refunded: true, RefundID: ref.ID, RefundedCents: ref.AmountCents}, nil
	}

	// Phase-2: gateway call, outside any transaction. Amount 0 = full refund.
	resp, gerr := s.gateway.Refund(ctx, payments.RefundRequest{
		PaymentRef:     ref.PaymentRef,
		AmountCents:    0,
		Currency:       ref.Currency,
		Reason:         "requested_by_customer",
		IdempotencyKey: ref.IdempotencyKey,
	})
	if gerr != nil {
		s.markRefundFailed(ctx, ref.ID, gerr)
		return CancelResult{}, gerr
	}

	// Phase-3: statuses flip only now that the money has moved.
	if err := s.finalizeOrderRefund(ctx, in, ref, resp.ProviderRef); err != nil {
		return CancelResult{}, err
	}
	return CancelResult{Refunded: true, RefundID: ref.ID, RefundedCents: ref.AmountCents}, nil
}

func (s *CancelService) finalizeOrderRefund(ctx context.Context, in CancelOrderInput, ref payments.Refund, providerRef string) error {
	return dbx.WithTxRetry(ctx, s.db, txAttempts, func(tx *gorm.DB) error {
		ord, err := s.lockOrder(ctx, tx, in.OrderID)
		if err != nil {
			return err
		}
		if err := markRefundSucceededInTx(ctx, tx, ref.ID, providerRef); err != nil {
			return err
		}
		if ord.PaymentStatus == OrderCancelled {
			return nil
		}
		return s.cancelOrderRowsInTx(ctx, tx, ord, in.RequesterEmail, RegistrationRefunded, "refund")
	})
}

// CancelRegistration cancels one ticket, optionally refunding its per-seat
// allocation, and cascades order cancellation once the last live ticket is
// gone. The cascade decision is made against rows re-read inside the same
// transaction that performs it, so racing cancellations cannot lose it.
func (s *CancelService) CancelRegistration(ctx context.Context, in CancelRegistrationInput) (CancelResult, error) {
	if in.RequesterEmail == "" {
		return CancelResult{}, ErrNotAuthenticated
	}

	if !in.IssueRefund {
		err := dbx.WithTxRetry(ctx, s.db, txAttempts, func(tx *gorm.DB) error {
			reg, err := s.lockRegistration(ctx, tx, in.RegistrationID)
			if err != nil {
				return err
			}
			if err := s.gateRegistration(ctx, tx, reg, in.RequesterEmail); err != nil {
				return err
			}
			return s.cancelRegistrationRowInTx(ctx, tx, reg, in.RequesterEmail, RegistrationCancelled)
		})
		return CancelResult{}, err
	}

	// Phase-1.
	var ref payments.Refund
	err := dbx.WithTxRetry(ctx, s.db, txAttempts, func(tx *gorm.DB) error {
		reg, err := s.lockRegistration(ctx, tx, in.RegistrationID)
		if err != nil {
			return err
		}
		if err := s.gateRegistration(ctx, tx, reg, in.RequesterEmail); err != nil {
			return err
		}
		amount, paymentRef, ok := registrationRefundTerms(reg)
		if !ok {
			return ErrRefundUnsupported
		}
		ref, err = upsertRefundInTx(ctx, tx, payments.Refund{
			OrderID:        reg.OrderID,
			RegistrationID: &reg.ID,
			Provider:       s.gateway.Name(),
			PaymentRef:     paymentRef,
			AmountCents:    amount,
			Currency:       Currency,
			IdempotencyKey: "refund:registration:" + reg.ID,
		})
		return err
	})
	if err != nil {
		return CancelResult{}, err
	}

	if ref.Status == payments.StatusSucceeded {
		if err := s.finalizeRegistrationRefund(ctx, in, ref, ""); err != nil {
			return CancelResult{}, err
		}
		return CancelResult{Refunded: true, RefundID: ref.ID, RefundedCents: ref.AmountCents}, nil
	}

	// Phase-2: partial refund for this seat.
	resp, gerr := s.gateway.Refund(ctx, payments.RefundRequest{
		PaymentRef:     ref.PaymentRef,
		AmountCents:    ref.AmountCents,
		Currency:       ref.Currency,
		Reason:         "requested_by_customer",
		IdempotencyKey: ref.IdempotencyKey,
	})
	if gerr != nil {
		s.markRefundFailed(ctx, ref.ID, gerr)
		return CancelResult{}, gerr
	}

	// Phase-3.
	if err := s.finalizeRegistrationRefund(ctx, in, ref, resp.ProviderRef); err != nil {
		return CancelResult{}, err
	}
	return CancelResult{Refunded: true, RefundID: ref.ID, RefundedCents: ref.AmountCents}, nil
}

func (s *CancelService) finalizeRegistrationRefund(ctx context.Context, in CancelRegistrationInput, ref payments.Refund, providerRef string) error {
	return dbx.WithTxRetry(ctx, s.db, txAttempts, func(tx *gorm.DB) error {
		reg, err := s.lockRegistration(ctx, tx, in.RegistrationID)
		if err != nil {
			return err
		}
		if err := markRefundSucceededInTx(ctx, tx, ref.ID, providerRef); err != nil {
			return err
		}
		if Terminal(reg.Status) {
			return nil
		}
		return s.cancelRegistrationRowInTx(ctx, tx, reg, in.RequesterEmail, RegistrationRefunded)
	})
}

// --- locking / gating helpers ---

// lockOrder takes the order row lock that serializes every lifecycle
// mutation touching the order or its registrations.
func (s *CancelService) lockOrder(ctx context.Context, tx *gorm.DB, orderID string) (*Order, error) {
	var ord Order
	if err := dbx.LockForUpdate(tx.WithContext(ctx)).First(&ord, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &ord, nil
}

// lockRegistration locks the parent order when there is one (so concurrent
// sibling cancellations serialize on the same row), else the registration
// itself for the legacy standalone path. The registration is re-read after
// the lock is held.
func (s *CancelService) lockRegistration(ctx context.Context, tx *gorm.DB, regID string) (*Registration, error) {
	var reg Registration
	if err := tx.WithContext(ctx).First(&reg, "id = ?", regID).Error; err != nil {
		return nil, err
	}

	if reg.OrderID != nil {
		ord, err := s.lockOrder(ctx, tx, *reg.OrderID)
		if err != nil {
			return nil, err
		}
		if err := tx.WithContext(ctx).First(&reg, "id = ?", regID).Error; err != nil {
			return nil, err
		}
		reg.Order = ord
		return &reg, nil
	}

	if err := dbx.LockForUpdate(tx.WithContext(ctx)).First(&reg, "id = ?", regID).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *CancelService) gateOrder(ord *Order, requester string) error {
	if !identity.Match(ord.PurchaserEmail, requester) {
		return ErrNotAuthorized
	}
	if ord.PaymentStatus == OrderCancelled {
		return ErrAlreadyTerminal
	}
	return nil
}

func (s *CancelService) gateRegistration(ctx context.Context, tx *gorm.DB, reg *Registration, requester string) error {
	owners := []string{reg.Email}
	if reg.Order != nil {
		owners = append(owners, reg.Order.PurchaserEmail)
	}
	if reg.ProfileID != nil {
		var p profiles.Profile
		if err := tx.WithContext(ctx).First(&p, "id = ?", *reg.ProfileID).Error; err == nil {
			owners = append(owners, p.Email)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if !identity.Owns(requester, owners...) {
		return ErrNotAuthorized
	}
	if Terminal(reg.Status) {
		return ErrAlreadyTerminal
	}
	return nil
}

// --- row mutations ---

// cancelOrderRowsInTx flips the order and every live registration to the
// same terminal outcome, all-or-nothing.
func (s *CancelService) cancelOrderRowsInTx(ctx context.Context, tx *gorm.DB, ord *Order, actor, regStatus, action string) error {
	now := time.Now()

	res := tx.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status = ?", ord.ID, ord.PaymentStatus). // optimistic guard
		Updates(map[string]any{"payment_status": OrderCancelled, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}

	if err := tx.WithContext(ctx).Model(&Registration{}).
		Where("order_id = ? AND status NOT IN ?", ord.ID, []string{RegistrationCancelled, RegistrationRefunded}).
		Updates(map[string]any{"status": regStatus, "updated_at": now}).Error; err != nil {
		return err
	}

	return writeOrderEventInTx(ctx, tx, ord.ID, actor, action, ord.PaymentStatus, OrderCancelled, nil)
}

// cancelRegistrationRowInTx flips one registration and re-scans its
// siblings: when none remain live, the order is cancelled in the same
// transaction.
func (s *CancelService) cancelRegistrationRowInTx(ctx context.Context, tx *gorm.DB, reg *Registration, actor, status string) error {
	now := time.Now()

	if err := tx.WithContext(ctx).Model(&Registration{}).
		Where("id = ? AND status = ?", reg.ID, reg.Status). // optimistic guard
		Updates(map[string]any{"status": status, "updated_at": now}).Error; err != nil {
		return err
	}

	if reg.Order == nil || reg.Order.PaymentStatus == OrderCancelled {
		return nil
	}

	var live int64
	if err := tx.WithContext(ctx).Model(&Registration{}).
		Where("order_id = ? AND status NOT IN ?", reg.Order.ID, []string{RegistrationCancelled, RegistrationRefunded}).
		Count(&live).Error; err != nil {
		return err
	}
	if live > 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status = ?", reg.Order.ID, reg.Order.PaymentStatus).
		Updates(map[string]any{"payment_status": OrderCancelled, "updated_at": now}).Error; err != nil {
		return err
	}
	note := "last live registration cancelled"
	return writeOrderEventInTx(ctx, tx, reg.Order.ID, actor, "cascade_cancel", reg.Order.PaymentStatus, OrderCancelled, &note)
}

func writeOrderEventInTx(ctx context.Context, tx *gorm.DB, orderID, actor, action, from, to string, note *string) error {
	ev := OrderEvent{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		ActorEmail: identity.Normalize(actor),
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		CreatedAt:  time.Now(),
	}
	return tx.WithContext(ctx).Create(&ev).Error
}

// --- refund bookkeeping ---

// upsertRefundInTx finds an existing refund row by idempotency key or
// creates a fresh `initiated` one. A row that already succeeded signals the
// caller to skip the gateway entirely.
func upsertRefundInTx(ctx context.Context, tx *gorm.DB, template payments.Refund) (payments.Refund, error) {
	var existing payments.Refund
	err := tx.WithContext(ctx).First(&existing, "idempotency_key = ?", template.IdempotencyKey).Error
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return payments.Refund{}, err
	}

	now := time.Now()
	template.ID = uuid.NewString()
	template.Status = payments.StatusInitiated
	template.CreatedAt = now
	template.UpdatedAt = now
	if err := tx.WithContext(ctx).Create(&template).Error; err != nil {
		return payments.Refund{}, err
	}
	return template, nil
}

func markRefundSucceededInTx(ctx context.Context, tx *gorm.DB, refundID, providerRef string) error {
	upd := map[string]any{
		"status":        payments.StatusSucceeded,
		"error_message": nil,
		"updated_at":    time.Now(),
	}
	if providerRef != "" {
		upd["provider_ref"] = providerRef
	}
	return tx.WithContext(ctx).Model(&payments.Refund{}).Where("id = ?", refundID).Updates(upd).Error
}

// markRefundFailed is best-effort audit; the gateway error is what the
// caller sees either way.
func (s *CancelService) markRefundFailed(ctx context.Context, refundID string, gerr error) {
	msg := gerr.Error()
	if len(msg) > 255 {
		msg = msg[:255]
	}
	_ = s.db.WithContext(ctx).Model(&payments.Refund{}).
		Where("id = ?", refundID).
		Updates(map[string]any{
			"status":        payments.StatusFailed,
			"error_message": msg,
			"updated_at":    time.Now(),
		}).Error
}
