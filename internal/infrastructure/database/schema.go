package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"pointshop-backend/pkg/logger"
)

// schemaStatements are applied in order on startup. All of them are idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      VARCHAR(100) NOT NULL UNIQUE,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          VARCHAR(20) NOT NULL DEFAULT 'user',
		points        INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
		balance       NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id          UUID PRIMARY KEY,
		name        VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id            UUID PRIMARY KEY,
		category_id   UUID REFERENCES categories(id),
		name          VARCHAR(255) NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		price         NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		points_price  INTEGER CHECK (points_price IS NULL OR points_price >= 0),
		points_reward INTEGER CHECK (points_reward IS NULL OR points_reward >= 0),
		stock         INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		image_url     TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS coupons (
		id              UUID PRIMARY KEY,
		user_id         UUID NOT NULL REFERENCES users(id),
		points_used     INTEGER NOT NULL CHECK (points_used > 0),
		discount_amount NUMERIC(12,2) NOT NULL CHECK (discount_amount >= 0),
		is_used         BOOLEAN NOT NULL DEFAULT FALSE,
		used_at         TIMESTAMPTZ,
		order_id        UUID,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id              UUID PRIMARY KEY,
		user_id         UUID NOT NULL REFERENCES users(id),
		coupon_id       UUID REFERENCES coupons(id),
		subtotal        NUMERIC(12,2) NOT NULL,
		discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		total_amount    NUMERIC(12,2) NOT NULL CHECK (total_amount >= 0),
		points_used     INTEGER NOT NULL DEFAULT 0,
		points_earned   INTEGER NOT NULL DEFAULT 0,
		status          VARCHAR(20) NOT NULL,
		payment_status  VARCHAR(20) NOT NULL,
		paid_at         TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id                   UUID PRIMARY KEY,
		order_id             UUID NOT NULL REFERENCES orders(id),
		product_id           UUID NOT NULL REFERENCES products(id),
		product_name         VARCHAR(255) NOT NULL,
		quantity             INTEGER NOT NULL CHECK (quantity > 0),
		price_at_time        NUMERIC(12,2) NOT NULL,
		points_price_at_time INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS points_transactions (
		id               UUID PRIMARY KEY,
		user_id          UUID NOT NULL REFERENCES users(id),
		order_id         UUID REFERENCES orders(id),
		coupon_id        UUID REFERENCES coupons(id),
		points_amount    INTEGER NOT NULL CHECK (points_amount > 0),
		transaction_type VARCHAR(10) NOT NULL CHECK (transaction_type IN ('earned', 'used')),
		description      TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_points_tx_user_created ON points_transactions (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_coupons_user_unused ON coupons (user_id) WHERE is_used = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id)`,
}

// EnsureSchema creates missing tables and indexes
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	logger.Info("Database schema ready", map[string]interface{}{"statements": len(schemaStatements)})
	return nil
}
