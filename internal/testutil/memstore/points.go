package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pointshop-backend/internal/domains/points/model"
	"pointshop-backend/internal/domains/points/repository"
)

type pointsRepo struct{ s *Store }

// Points is the PointsRepository view of the store
func (s *Store) Points() repository.PointsRepository { return pointsRepo{s} }

func (r pointsRepo) CreateCouponWithTx(_ context.Context, _ pgx.Tx, c *model.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("points.CreateCouponWithTx"); err != nil {
		return err
	}
	r.s.data.coupons[c.ID] = *c
	return nil
}

func (r pointsRepo) GetCouponForUpdateWithTx(_ context.Context, _ pgx.Tx, couponID uuid.UUID) (*model.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.coupons[couponID]
	if !ok {
		return nil, model.ErrCouponNotFound
	}
	return &c, nil
}

func (r pointsRepo) MarkCouponUsedWithTx(_ context.Context, _ pgx.Tx, couponID, orderID uuid.UUID, usedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.coupons[couponID]
	if !ok || c.IsUsed {
		return model.ErrCouponNotFound
	}
	c.IsUsed = true
	c.UsedAt = &usedAt
	c.OrderID = &orderID
	r.s.data.coupons[couponID] = c
	return nil
}

func (r pointsRepo) ListUnusedCoupons(_ context.Context, userID uuid.UUID) ([]model.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Coupon, 0)
	for _, c := range r.s.data.coupons {
		if c.UserID == userID && !c.IsUsed {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r pointsRepo) CreateTransactionWithTx(_ context.Context, _ pgx.Tx, t *model.PointsTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("points.CreateTransactionWithTx"); err != nil {
		return err
	}
	r.s.data.ledger = append(r.s.data.ledger, *t)
	return nil
}

func (r pointsRepo) ListTransactions(_ context.Context, userID uuid.UUID, filter model.TransactionFilter) ([]model.TransactionView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	views := make([]model.TransactionView, 0)
	for _, t := range r.s.data.ledger {
		if t.UserID != userID {
			continue
		}
		if filter.From != nil && t.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !t.CreatedAt.Before(filter.To.Add(24*time.Hour)) {
			continue
		}

		v := model.TransactionView{PointsTransaction: t, Points: t.Signed()}
		if t.OrderID != nil {
			if o, ok := r.s.data.orders[*t.OrderID]; ok {
				total := o.TotalAmount
				status := string(o.Status)
				payment := string(o.PaymentStatus)
				v.OrderTotal = &total
				v.OrderStatus = &status
				v.PaymentStatus = &payment
			}
		}
		views = append(views, v)
	}

	// Newest first
	sort.SliceStable(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })

	if filter.Limit > 0 {
		if filter.Offset >= len(views) {
			return []model.TransactionView{}, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(views) {
			end = len(views)
		}
		views = views[filter.Offset:end]
	}
	return views, nil
}

func (r pointsRepo) ListLedgerDrift(_ context.Context, limit int) ([]model.LedgerDrift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sums := make(map[uuid.UUID]int)
	for _, t := range r.s.data.ledger {
		sums[t.UserID] += t.Signed()
	}

	drift := make([]model.LedgerDrift, 0)
	for id, u := range r.s.data.users {
		if u.Points != sums[id] {
			drift = append(drift, model.LedgerDrift{UserID: id, StoredPoints: u.Points, LedgerPoints: sums[id]})
		}
	}
	sort.Slice(drift, func(i, j int) bool { return drift[i].UserID.String() < drift[j].UserID.String() })
	if limit > 0 && len(drift) > limit {
		drift = drift[:limit]
	}
	return drift, nil
}
