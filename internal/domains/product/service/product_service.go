package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pointshop-backend/internal/domains/product/model"
	"pointshop-backend/internal/domains/product/repository"
	"pointshop-backend/internal/shared/utils"
	"pointshop-backend/pkg/logger"
)

type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ServiceInterface {
	return &ProductService{repo: repo}
}

// ================ READS =========================

func (s *ProductService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.List(ctx)
}

func (s *ProductService) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}

func (s *ProductService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, model.NewProductError(model.ErrCodeProductNotFound, "Product not found", err)
		}
		return nil, err
	}
	return p, nil
}

// ================ ADMIN WRITES =========================

func (s *ProductService) CreateProduct(ctx context.Context, req model.ProductRequest) (*model.Product, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{ID: uuid.New(), CreatedAt: now}
	req.Apply(p)
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, mapWriteError(err)
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": p.ID.String(),
		"name":       p.Name,
	})
	return s.GetProduct(ctx, p.ID)
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req model.ProductRequest) (*model.Product, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(existing)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, mapWriteError(err)
	}

	logger.Info("Product updated", map[string]interface{}{"product_id": id.String()})
	return s.GetProduct(ctx, id)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapWriteError(err)
	}
	logger.Info("Product deleted", map[string]interface{}{"product_id": id.String()})
	return nil
}

func (s *ProductService) validate(ctx context.Context, req model.ProductRequest) error {
	if err := req.Validate(); err != nil {
		return model.NewProductError(model.ErrCodeValidation, "Validation failed", err)
	}

	if req.CategoryID != nil {
		exists, err := s.repo.CategoryExists(ctx, *req.CategoryID)
		if err != nil {
			return err
		}
		if !exists {
			return model.NewProductError(model.ErrCodeCategoryNotFound, "Category not found", model.ErrCategoryNotFound)
		}
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case errors.Is(err, model.ErrProductNotFound):
		return model.NewProductError(model.ErrCodeProductNotFound, "Product not found", err)
	case utils.IsCheckViolation(err):
		return model.NewProductError(model.ErrCodeValidation, "Product violates a catalog constraint", err)
	case utils.IsForeignKeyViolation(err):
		return model.NewProductError(model.ErrCodeValidation, "Product is referenced by existing orders", err)
	}
	return err
}
