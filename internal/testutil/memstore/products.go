package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pointshop-backend/internal/domains/product/model"
	"pointshop-backend/internal/domains/product/repository"
)

type productRepo struct{ s *Store }

// Products is the ProductRepository view of the store
func (s *Store) Products() repository.ProductRepository { return productRepo{s} }

// withCategory must be called with mu held
func (r productRepo) withCategory(p model.Product) model.Product {
	if p.CategoryID != nil {
		p.CategoryName = r.s.data.categories[*p.CategoryID].Name
	}
	return p
}

func (r productRepo) filter(keep func(model.Product) bool) []model.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Product, 0)
	for _, p := range r.s.data.products {
		if keep(p) {
			out = append(out, r.withCategory(p))
		}
	}
	sortProducts(out)
	return out
}

func (r productRepo) List(context.Context) ([]model.Product, error) {
	return r.filter(func(model.Product) bool { return true }), nil
}

func (r productRepo) ListByCategory(_ context.Context, categoryID uuid.UUID) ([]model.Product, error) {
	return r.filter(func(p model.Product) bool {
		return p.CategoryID != nil && *p.CategoryID == categoryID
	}), nil
}

func (r productRepo) ListRedeemable(context.Context) ([]model.Product, error) {
	return r.filter(func(p model.Product) bool { return p.Redeemable() && p.Stock > 0 }), nil
}

func (r productRepo) ListCategories(context.Context) ([]model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Category, 0, len(r.s.data.categories))
	for _, c := range r.s.data.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r productRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	p = r.withCategory(p)
	return &p, nil
}

func (r productRepo) CategoryExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.data.categories[id]
	return ok, nil
}

func (r productRepo) Create(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.products[p.ID] = *p
	return nil
}

func (r productRepo) Update(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[p.ID]; !ok {
		return model.ErrProductNotFound
	}
	r.s.data.products[p.ID] = *p
	return nil
}

func (r productRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(r.s.data.products, id)
	return nil
}

func (r productRepo) GetForUpdateWithTx(_ context.Context, _ pgx.Tx, ids []uuid.UUID) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.data.products[id]; ok {
			out = append(out, r.withCategory(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r productRepo) DecrementStockWithTx(_ context.Context, _ pgx.Tx, id uuid.UUID, qty int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("products.DecrementStockWithTx"); err != nil {
		return 0, err
	}
	p, ok := r.s.data.products[id]
	if !ok || p.Stock < qty {
		return 0, model.ErrInsufficientStock
	}
	p.Stock -= qty
	r.s.data.products[id] = p
	return p.Stock, nil
}

func (r productRepo) InvalidateCache(context.Context, ...uuid.UUID) {}
