package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/jmoiron/sqlx"
)

const productColumns = `
	p.id, p.sku, p.name, p.quantity, p.min_stock_level, p.max_stock_level,
	p.lead_time_days, p.safety_stock, p.seasonality_index, p.promotion_active,
	p.current_discount, p.average_daily_sales, p.created_at,
	p.predicted_demand_7d, p.predicted_demand_30d, p.reorder_suggestion, p.reorder_quantity,
	COALESCE(s.total_sold, 0) AS total_sold
`

const productFrom = `
	FROM products p
	LEFT JOIN (
		SELECT product_id, SUM(quantity) AS total_sold
		FROM sales
		GROUP BY product_id
	) s ON s.product_id = p.id
`

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = $1`

	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` ORDER BY p.id`

	var products []*domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *productRepository) ListProductIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list product ids: %w", err)
	}
	return ids, nil
}

func (r *productRepository) UpdatePredictionCache(ctx context.Context, id int64, cache domain.PredictionCache) error {
	query := `
		UPDATE products
		SET predicted_demand_7d = $1,
		    predicted_demand_30d = $2,
		    reorder_suggestion = $3,
		    reorder_quantity = $4,
		    updated_at = NOW()
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		cache.PredictedDemand7d,
		cache.PredictedDemand30d,
		cache.ReorderSuggested,
		cache.ReorderQuantity,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update prediction cache: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
	}
	return nil
}
