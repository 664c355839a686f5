package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pointshop-backend/internal/domains/points/model"
)

type postgresPointsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPointsRepository(pool *pgxpool.Pool) PointsRepository {
	return &postgresPointsRepository{pool: pool}
}

// =====================================================
// COUPONS
// =====================================================

func (r *postgresPointsRepository) CreateCouponWithTx(ctx context.Context, tx pgx.Tx, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, user_id, points_used, discount_amount, is_used, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`
	if _, err := tx.Exec(ctx, query, c.ID, c.UserID, c.PointsUsed, c.DiscountAmount, c.CreatedAt); err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

func (r *postgresPointsRepository) GetCouponForUpdateWithTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (*model.Coupon, error) {
	query := `
		SELECT id, user_id, points_used, discount_amount, is_used, used_at, order_id, created_at
		FROM coupons
		WHERE id = $1
		FOR UPDATE
	`
	var c model.Coupon
	err := tx.QueryRow(ctx, query, couponID).Scan(
		&c.ID, &c.UserID, &c.PointsUsed, &c.DiscountAmount,
		&c.IsUsed, &c.UsedAt, &c.OrderID, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCouponNotFound
		}
		return nil, fmt.Errorf("lock coupon: %w", err)
	}
	return &c, nil
}

func (r *postgresPointsRepository) MarkCouponUsedWithTx(ctx context.Context, tx pgx.Tx, couponID, orderID uuid.UUID, usedAt time.Time) error {
	query := `
		UPDATE coupons
		SET is_used = TRUE, used_at = $3, order_id = $2
		WHERE id = $1 AND is_used = FALSE
	`
	tag, err := tx.Exec(ctx, query, couponID, orderID, usedAt)
	if err != nil {
		return fmt.Errorf("mark coupon used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}
	return nil
}

func (r *postgresPointsRepository) ListUnusedCoupons(ctx context.Context, userID uuid.UUID) ([]model.Coupon, error) {
	query := `
		SELECT id, user_id, points_used, discount_amount, is_used, used_at, order_id, created_at
		FROM coupons
		WHERE user_id = $1 AND is_used = FALSE
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]model.Coupon, 0)
	for rows.Next() {
		var c model.Coupon
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.PointsUsed, &c.DiscountAmount,
			&c.IsUsed, &c.UsedAt, &c.OrderID, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// =====================================================
// LEDGER
// =====================================================

func (r *postgresPointsRepository) CreateTransactionWithTx(ctx context.Context, tx pgx.Tx, t *model.PointsTransaction) error {
	query := `
		INSERT INTO points_transactions (
			id, user_id, order_id, coupon_id, points_amount, transaction_type, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.OrderID, t.CouponID,
		t.PointsAmount, string(t.TransactionType), t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create points transaction: %w", err)
	}
	return nil
}

func (r *postgresPointsRepository) ListTransactions(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) ([]model.TransactionView, error) {
	conditions := []string{"pt.user_id = $1"}
	args := []interface{}{userID}

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("pt.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		// To is a calendar day, include all of it
		args = append(args, filter.To.Add(24*time.Hour))
		conditions = append(conditions, fmt.Sprintf("pt.created_at < $%d", len(args)))
	}

	query := `
		SELECT
			pt.id, pt.user_id, pt.order_id, pt.coupon_id, pt.points_amount,
			pt.transaction_type, pt.description, pt.created_at,
			o.total_amount, o.status, o.payment_status
		FROM points_transactions pt
		LEFT JOIN orders o ON pt.order_id = o.id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY pt.created_at DESC, pt.id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list points transactions: %w", err)
	}
	defer rows.Close()

	views := make([]model.TransactionView, 0)
	for rows.Next() {
		var v model.TransactionView
		var txType string
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.OrderID, &v.CouponID, &v.PointsAmount,
			&txType, &v.Description, &v.CreatedAt,
			&v.OrderTotal, &v.OrderStatus, &v.PaymentStatus,
		); err != nil {
			return nil, fmt.Errorf("scan points transaction: %w", err)
		}
		v.TransactionType = model.TransactionType(txType)
		v.Points = v.Signed()
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *postgresPointsRepository) ListLedgerDrift(ctx context.Context, limit int) ([]model.LedgerDrift, error) {
	query := `
		SELECT u.id, u.points, COALESCE(l.total, 0)
		FROM users u
		LEFT JOIN (
			SELECT user_id,
				SUM(CASE WHEN transaction_type = 'earned' THEN points_amount ELSE -points_amount END) AS total
			FROM points_transactions
			GROUP BY user_id
		) l ON l.user_id = u.id
		WHERE u.points <> COALESCE(l.total, 0)
		ORDER BY u.id
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger drift: %w", err)
	}
	defer rows.Close()

	drift := make([]model.LedgerDrift, 0)
	for rows.Next() {
		var d model.LedgerDrift
		if err := rows.Scan(&d.UserID, &d.StoredPoints, &d.LedgerPoints); err != nil {
			return nil, fmt.Errorf("scan ledger drift: %w", err)
		}
		drift = append(drift, d)
	}
	return drift, rows.Err()
}
