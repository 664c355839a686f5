package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pointshop-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY INTERFACE
// =====================================================
type OrderRepository interface {
	// Order operations
	CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	GetOrderByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
	// GetForUpdateWithTx locks the order row of userID
	GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, orderID, userID uuid.UUID) (*model.Order, error)
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// Order items operations
	CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error
	// ListItemsByOrderIDs returns items grouped by order id
	ListItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error)

	// List operations, newest first
	ListOrdersByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, int, error)
}
