package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/shopspring/decimal"
)

// SalesRepository is the sales ledger.
type SalesRepository interface {
	// FetchSales returns a product's sales on or after since, oldest first.
	FetchSales(ctx context.Context, productID int64, since time.Time) ([]domain.SaleObservation, error)
	InsertSales(ctx context.Context, sales []domain.SaleObservation) (int, error)
	TopSelling(ctx context.Context, since time.Time, limit int) ([]domain.ProductSales, error)
	Revenue(ctx context.Context, since time.Time) (decimal.Decimal, error)
}

// ProductRepository reads product attributes and stores cached predictions.
// GetProduct returns domain.ErrProductNotFound for unknown ids.
type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListProductIDs(ctx context.Context) ([]int64, error)
	UpdatePredictionCache(ctx context.Context, id int64, cache domain.PredictionCache) error
}
