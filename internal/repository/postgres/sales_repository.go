package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) FetchSales(ctx context.Context, productID int64, since time.Time) ([]domain.SaleObservation, error) {
	query := `
		SELECT product_id, sale_date, quantity, unit_price
		FROM sales
		WHERE product_id = $1 AND sale_date >= $2
		ORDER BY sale_date, id
	`

	var sales []domain.SaleObservation
	if err := sqlx.SelectContext(ctx, r.db, &sales, query, productID, since); err != nil {
		return nil, fmt.Errorf("failed to fetch sales for product %d: %w", productID, err)
	}
	return sales, nil
}

func (r *salesRepository) InsertSales(ctx context.Context, sales []domain.SaleObservation) (int, error) {
	if len(sales) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sales (product_id, sale_date, quantity, unit_price, created_at)
			VALUES ($1, $2, $3, $4, NOW())
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, s := range sales {
			if _, err := stmt.ExecContext(ctx, s.ProductID, s.Date, s.Quantity, s.UnitPrice); err != nil {
				return fmt.Errorf("failed to insert sale for product %d: %w", s.ProductID, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *salesRepository) TopSelling(ctx context.Context, since time.Time, limit int) ([]domain.ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			s.product_id,
			p.name AS product_name,
			SUM(s.quantity) AS units_sold,
			COALESCE(SUM(s.quantity * s.unit_price), 0) AS revenue
		FROM sales s
		JOIN products p ON p.id = s.product_id
		WHERE s.sale_date >= $1
		GROUP BY s.product_id, p.name
		ORDER BY units_sold DESC, s.product_id
		LIMIT $2
	`

	var top []domain.ProductSales
	if err := sqlx.SelectContext(ctx, r.db, &top, query, since, limit); err != nil {
		return nil, fmt.Errorf("failed to get top selling products: %w", err)
	}
	return top, nil
}

func (r *salesRepository) Revenue(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	query := `SELECT COALESCE(SUM(quantity * unit_price), 0) FROM sales WHERE sale_date >= $1`
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&revenue); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return revenue, nil
}
