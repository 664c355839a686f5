package service

import (
	"context"

	"github.com/google/uuid"

	"pointshop-backend/internal/domains/order/model"
)

// =====================================================
// ORDER SERVICE INTERFACE
// =====================================================
type OrderService interface {
	// CreateOrder settles a checkout in one transaction
	CreateOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.CreateOrderResponse, error)

	// Get order detail by ID, owner only
	GetOrderDetail(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*model.Order, error)

	// List user's orders with pagination, newest first
	ListOrders(ctx context.Context, userID uuid.UUID, req model.ListOrdersRequest) ([]model.Order, error)

	// UpdateOrderStatus moves an order of userID through the state machine
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, userID uuid.UUID, req model.UpdateOrderStatusRequest) (*model.OrderStatusResponse, error)
}
