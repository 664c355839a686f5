package service

import (
	"context"

	"github.com/google/uuid"

	"pointshop-backend/internal/domains/product/model"
)

// ServiceInterface is the catalog business logic
type ServiceInterface interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Admin
	CreateProduct(ctx context.Context, req model.ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req model.ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}
