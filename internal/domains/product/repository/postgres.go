package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"pointshop-backend/internal/domains/product/model"
	"pointshop-backend/pkg/cache"
	"pointshop-backend/pkg/logger"
)

const (
	cacheKeyAll             = "products:all"
	cacheKeyRedeemable      = "products:redeemable"
	cacheKeyCategories      = "products:categories"
	cacheKeyCategoryPattern = "products:category:*"
)

func cacheKeyProduct(id uuid.UUID) string {
	return "products:id:" + id.String()
}

func cacheKeyCategory(id uuid.UUID) string {
	return "products:category:" + id.String()
}

const productColumns = `
	p.id, p.category_id, COALESCE(c.name, ''), p.name, p.description, p.price,
	p.points_price, p.points_reward, p.stock, p.image_url, p.created_at, p.updated_at`

type postgresProductRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
	ttl   time.Duration
}

func NewPostgresProductRepository(pool *pgxpool.Pool, c cache.Cache, ttl time.Duration) ProductRepository {
	if c == nil {
		c = cache.Noop{}
	}
	return &postgresProductRepository{pool: pool, cache: c, ttl: ttl}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Description, &p.Price,
		&p.PointsPrice, &p.PointsReward, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// cached implements cache-aside: serve from cache, else load and populate.
// Cache failures only cost a database round trip.
func cached[T any](ctx context.Context, r *postgresProductRepository, key string, load func() (T, error)) (T, error) {
	var out T
	if found, err := r.cache.Get(ctx, key, &out); err == nil && found {
		return out, nil
	} else if err != nil {
		logger.Warn("product cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	out, err := load()
	if err != nil {
		return out, err
	}

	if err := r.cache.Set(ctx, key, out, r.ttl); err != nil {
		logger.Warn("product cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return out, nil
}

// =====================================================
// READS
// =====================================================

func (r *postgresProductRepository) List(ctx context.Context) ([]model.Product, error) {
	return cached(ctx, r, cacheKeyAll, func() ([]model.Product, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT`+productColumns+`
			FROM products p
			LEFT JOIN categories c ON p.category_id = c.id
			ORDER BY p.created_at DESC, p.id`)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		return collectProducts(rows)
	})
}

func (r *postgresProductRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error) {
	return cached(ctx, r, cacheKeyCategory(categoryID), func() ([]model.Product, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT`+productColumns+`
			FROM products p
			LEFT JOIN categories c ON p.category_id = c.id
			WHERE p.category_id = $1
			ORDER BY p.created_at DESC, p.id`, categoryID)
		if err != nil {
			return nil, fmt.Errorf("list products by category: %w", err)
		}
		return collectProducts(rows)
	})
}

func (r *postgresProductRepository) ListRedeemable(ctx context.Context) ([]model.Product, error) {
	return cached(ctx, r, cacheKeyRedeemable, func() ([]model.Product, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT`+productColumns+`
			FROM products p
			LEFT JOIN categories c ON p.category_id = c.id
			WHERE p.points_price IS NOT NULL AND p.points_price > 0 AND p.stock > 0
			ORDER BY p.points_price, p.id`)
		if err != nil {
			return nil, fmt.Errorf("list redeemable products: %w", err)
		}
		return collectProducts(rows)
	})
}

func (r *postgresProductRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	return cached(ctx, r, cacheKeyCategories, func() ([]model.Category, error) {
		rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		defer rows.Close()

		categories := make([]model.Category, 0)
		for rows.Next() {
			var c model.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
				return nil, fmt.Errorf("scan category: %w", err)
			}
			categories = append(categories, c)
		}
		return categories, rows.Err()
	})
}

func (r *postgresProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := cached(ctx, r, cacheKeyProduct(id), func() (*model.Product, error) {
		var p model.Product
		err := scanProduct(r.pool.QueryRow(ctx, `
			SELECT`+productColumns+`
			FROM products p
			LEFT JOIN categories c ON p.category_id = c.id
			WHERE p.id = $1`, id), &p)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, model.ErrProductNotFound
			}
			return nil, fmt.Errorf("find product: %w", err)
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresProductRepository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return exists, nil
}

// =====================================================
// WRITES
// =====================================================

func (r *postgresProductRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (
			id, category_id, name, description, price,
			points_price, points_reward, stock, image_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price,
		p.PointsPrice, p.PointsReward, p.Stock, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	r.InvalidateCache(ctx)
	return nil
}

func (r *postgresProductRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products SET
			category_id = $2, name = $3, description = $4, price = $5,
			points_price = $6, points_reward = $7, stock = $8, image_url = $9, updated_at = $10
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price,
		p.PointsPrice, p.PointsReward, p.Stock, p.ImageURL, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	r.InvalidateCache(ctx, p.ID)
	return nil
}

func (r *postgresProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	r.InvalidateCache(ctx, id)
	return nil
}

// =====================================================
// SETTLEMENT
// =====================================================

func (r *postgresProductRepository) GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	// FOR UPDATE OF p: lock product rows only, categories stay unlocked
	rows, err := tx.Query(ctx, `
		SELECT`+productColumns+`
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.id = ANY($1::uuid[])
		ORDER BY p.id
		FOR UPDATE OF p`, pq.Array(strIDs))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	return collectProducts(rows)
}

func (r *postgresProductRepository) DecrementStockWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) (int, error) {
	var stock int
	err := tx.QueryRow(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING stock`, id, qty).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrInsufficientStock
		}
		return 0, fmt.Errorf("decrement stock: %w", err)
	}
	return stock, nil
}

func (r *postgresProductRepository) InvalidateCache(ctx context.Context, ids ...uuid.UUID) {
	keys := []string{cacheKeyAll, cacheKeyRedeemable, cacheKeyCategories}
	for _, id := range ids {
		keys = append(keys, cacheKeyProduct(id))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		logger.Warn("product cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
	// Category listings are keyed by category id, drop them all
	if err := r.cache.DeletePattern(ctx, cacheKeyCategoryPattern); err != nil {
		logger.Warn("product cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}
