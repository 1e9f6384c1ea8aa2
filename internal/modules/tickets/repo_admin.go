package tickets

import (
	"context"
	"strings"
)

type AdminListParams struct {
	Q             string
	PaymentStatus string
	PaymentMethod string
	Page          int
	PageSize      int
}

type AdminListResult struct {
	Items []Order
	Total int64
}

func (r *Repo) AdminList(ctx context.Context, in AdminListParams) (AdminListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 30
	}

	q := strings.TrimSpace(in.Q)

	base := r.db.WithContext(ctx).Model(&Order{})
	if s := strings.TrimSpace(in.PaymentStatus); s != "" {
		base = base.Where("payment_status = ?", s)
	}
	if m := strings.TrimSpace(in.PaymentMethod); m != "" {
		base = base.Where("payment_method = ?", m)
	}
	if q != "" {
		like := "%" + q + "%"
		base = base.Where("(id LIKE ? OR purchaser_email LIKE ? OR invoice_number LIKE ?)", like, like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return AdminListResult{}, err
	}

	var items []Order
	if err := base.
		Preload("Registrations").
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return AdminListResult{}, err
	}

	return AdminListResult{Items: items, Total: total}, nil
}

func (r *Repo) AdminGetDetail(ctx context.Context, orderID string) (*Order, []OrderEvent, error) {
	o, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	var ev []OrderEvent
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&ev, "order_id = ?", orderID).Error; err != nil {
		return nil, nil, err
	}
	return o, ev, nil
}
