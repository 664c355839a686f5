package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"pointshop-backend/internal/domains/order/model"
)

const orderColumns = `
	id, user_id, coupon_id, subtotal, discount_amount, total_amount,
	points_used, points_earned, status, payment_status, paid_at, created_at, updated_at`

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{
		pool: pool,
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	var status, paymentStatus string
	err := row.Scan(
		&o.ID, &o.UserID, &o.CouponID, &o.Subtotal, &o.DiscountAmount, &o.TotalAmount,
		&o.PointsUsed, &o.PointsEarned, &status, &paymentStatus, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	return &o, nil
}

// =====================================================
// CREATE ORDER
// =====================================================

func (r *postgresOrderRepository) CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.CouponID,
		order.Subtotal,
		order.DiscountAmount,
		order.TotalAmount,
		order.PointsUsed,
		order.PointsEarned,
		string(order.Status),
		string(order.PaymentStatus),
		order.PaidAt,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order with tx: %w", err)
	}

	return nil
}

func (r *postgresOrderRepository) CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	// One round trip for all items
	rows := make([][]interface{}, len(items))
	for i, it := range items {
		rows[i] = []interface{}{
			it.ID, it.OrderID, it.ProductID, it.ProductName,
			it.Quantity, it.PriceAtTime, it.PointsPriceAtTime,
		}
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"id", "order_id", "product_id", "product_name", "quantity", "price_at_time", "points_price_at_time"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}
	return nil
}

// =====================================================
// GET ORDER
// =====================================================

func (r *postgresOrderRepository) GetOrderByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *postgresOrderRepository) GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, orderID, userID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`

	o, err := scanOrder(tx.QueryRow(ctx, query, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}

func (r *postgresOrderRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, paid_at = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query,
		order.ID, string(order.Status), string(order.PaymentStatus), order.PaidAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// =====================================================
// LIST
// =====================================================

func (r *postgresOrderRepository) ListOrdersByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresOrderRepository) ListItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	out := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT id, order_id, product_id, product_name, quantity, price_at_time, points_price_at_time
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY product_name, id
	`
	rows, err := r.pool.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.PriceAtTime, &it.PointsPriceAtTime,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}
