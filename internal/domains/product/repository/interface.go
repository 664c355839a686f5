package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pointshop-backend/internal/domains/product/model"
)

type ProductRepository interface {
	// Catalog reads, served from cache when warm
	List(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error)
	// ListRedeemable returns in-stock products with a points price
	ListRedeemable(ctx context.Context) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)

	// Catalog writes invalidate the cache
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Settlement, never cached.
	// GetForUpdateWithTx locks the rows in id order and returns them sorted by id.
	GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error)
	// DecrementStockWithTx fails with ErrInsufficientStock instead of going negative
	DecrementStockWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) (int, error)

	// InvalidateCache drops cached catalog reads after stock moved
	InvalidateCache(ctx context.Context, ids ...uuid.UUID)
}
