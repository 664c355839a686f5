package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointshop-backend/internal/domains/product/model"
	"pointshop-backend/internal/domains/product/repository"
	"pointshop-backend/internal/testutil/memstore"
)

func requireProductCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var productErr *model.ProductError
	require.True(t, errors.As(err, &productErr), "expected ProductError, got %v", err)
	assert.Equal(t, code, productErr.Code)
}

func TestCreateProduct(t *testing.T) {
	store := memstore.New()
	category := model.Category{ID: uuid.New(), Name: "Stationery"}
	store.PutCategory(category)
	svc := NewProductService(store.Products())

	cost := 80
	p, err := svc.CreateProduct(context.Background(), model.ProductRequest{
		CategoryID:  &category.ID,
		Name:        "Notebook",
		Price:       decimal.RequireFromString("4.499"),
		PointsPrice: &cost,
		Stock:       12,
	})
	require.NoError(t, err)
	assert.Equal(t, "Stationery", p.CategoryName)
	assert.Equal(t, "4.50", p.Price.StringFixed(2))
	assert.True(t, p.Redeemable())

	inCategory, err := svc.ListByCategory(context.Background(), category.ID)
	require.NoError(t, err)
	assert.Len(t, inCategory, 1)

	none, err := svc.ListByCategory(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateProduct_Rejections(t *testing.T) {
	store := memstore.New()
	svc := NewProductService(store.Products())

	missing := uuid.New()
	_, err := svc.CreateProduct(context.Background(), model.ProductRequest{
		CategoryID: &missing, Name: "Ghost", Price: decimal.NewFromInt(1),
	})
	requireProductCode(t, err, model.ErrCodeCategoryNotFound)

	_, err = svc.CreateProduct(context.Background(), model.ProductRequest{
		Name: "Negative", Price: decimal.NewFromInt(-1),
	})
	requireProductCode(t, err, model.ErrCodeValidation)

	_, err = svc.CreateProduct(context.Background(), model.ProductRequest{
		Name: "Oversold", Price: decimal.NewFromInt(1), Stock: -3,
	})
	requireProductCode(t, err, model.ErrCodeValidation)

	all, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	store := memstore.New()
	svc := NewProductService(store.Products())

	p, err := svc.CreateProduct(context.Background(), model.ProductRequest{Name: "Pen", Price: decimal.NewFromInt(2), Stock: 5})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(context.Background(), p.ID, model.ProductRequest{Name: "Gel pen", Price: decimal.NewFromInt(3), Stock: 9})
	require.NoError(t, err)
	assert.Equal(t, "Gel pen", updated.Name)
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	_, err = svc.UpdateProduct(context.Background(), uuid.New(), model.ProductRequest{Name: "Nope", Price: decimal.NewFromInt(1)})
	requireProductCode(t, err, model.ErrCodeProductNotFound)

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID))
	_, err = svc.GetProduct(context.Background(), p.ID)
	requireProductCode(t, err, model.ErrCodeProductNotFound)

	err = svc.DeleteProduct(context.Background(), p.ID)
	requireProductCode(t, err, model.ErrCodeProductNotFound)
}

// referencedRepo fails deletes the way postgres does for a product with order items
type referencedRepo struct {
	repository.ProductRepository
}

func (referencedRepo) Delete(context.Context, uuid.UUID) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: "order_items_product_id_fkey"}
}

func TestDeleteProduct_ReferencedByOrders(t *testing.T) {
	svc := NewProductService(referencedRepo{memstore.New().Products()})

	err := svc.DeleteProduct(context.Background(), uuid.New())
	requireProductCode(t, err, model.ErrCodeValidation)
}
