package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pointshop-backend/internal/domains/order/model"
	"pointshop-backend/internal/domains/order/repository"
)

type orderRepo struct{ s *Store }

// Orders is the OrderRepository view of the store
func (s *Store) Orders() repository.OrderRepository { return orderRepo{s} }

func (r orderRepo) CreateOrderWithTx(_ context.Context, _ pgx.Tx, order *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.CreateOrderWithTx"); err != nil {
		return err
	}
	o := *order
	o.Items = nil
	r.s.data.orders[o.ID] = o
	return nil
}

func (r orderRepo) GetOrderByIDAndUserID(_ context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return &o, nil
}

func (r orderRepo) GetForUpdateWithTx(ctx context.Context, _ pgx.Tx, orderID, userID uuid.UUID) (*model.Order, error) {
	return r.GetOrderByIDAndUserID(ctx, orderID, userID)
}

func (r orderRepo) UpdateStatusWithTx(_ context.Context, _ pgx.Tx, order *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[order.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	o.Status = order.Status
	o.PaymentStatus = order.PaymentStatus
	o.PaidAt = order.PaidAt
	o.UpdatedAt = order.UpdatedAt
	r.s.data.orders[o.ID] = o
	return nil
}

func (r orderRepo) CreateOrderItemsWithTx(_ context.Context, _ pgx.Tx, items []model.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.CreateOrderItemsWithTx"); err != nil {
		return err
	}
	r.s.data.items = append(r.s.data.items, items...)
	return nil
}

func (r orderRepo) ListItemsByOrderIDs(_ context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	for _, it := range r.s.data.items {
		if wanted[it.OrderID] {
			out[it.OrderID] = append(out[it.OrderID], it)
		}
	}
	return out, nil
}

func (r orderRepo) ListOrdersByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]model.Order, 0)
	for _, o := range r.s.data.orders {
		if o.UserID == userID {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset >= total {
		return []model.Order{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
