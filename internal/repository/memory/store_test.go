package memory

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repository.SalesRepository   = (*Store)(nil)
	_ repository.ProductRepository = (*Store)(nil)
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.PutProduct(domain.Product{ID: 2, Name: "Leche", Quantity: 40})
	s.PutProduct(domain.Product{ID: 1, Name: "Pan", Quantity: 10})

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	_, err := s.InsertSales(context.Background(), []domain.SaleObservation{
		{ProductID: 1, Date: day, Quantity: 3, UnitPrice: decimal.RequireFromString("1.50")},
		{ProductID: 2, Date: day, Quantity: 5, UnitPrice: decimal.RequireFromString("2.00")},
		{ProductID: 1, Date: day.AddDate(0, 0, -40), Quantity: 10, UnitPrice: decimal.RequireFromString("1.50")},
		{ProductID: 1, Date: day.AddDate(0, 0, -1), Quantity: 4, UnitPrice: decimal.RequireFromString("1.50")},
	})
	require.NoError(t, err)
	return s
}

func TestStoreProducts(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	p, err := s.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 17, p.TotalSold)

	_, err = s.GetProduct(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	ids, err := s.ListProductIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	require.NoError(t, s.UpdatePredictionCache(ctx, 2, domain.PredictionCache{ReorderSuggested: true, ReorderQuantity: 9}))
	p, _ = s.GetProduct(ctx, 2)
	assert.True(t, p.ReorderSuggested)
	assert.Equal(t, 9, p.ReorderQuantity)

	// returned products are copies
	p.Quantity = 0
	again, _ := s.GetProduct(ctx, 2)
	assert.Equal(t, 40, again.Quantity)
}

func TestStoreSales(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	sales, err := s.FetchSales(ctx, 1, since)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.True(t, sales[0].Date.Before(sales[1].Date))

	top, err := s.TopSelling(ctx, since, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(1), top[0].ProductID)
	assert.Equal(t, 7, top[0].UnitsSold)
	assert.Equal(t, "Pan", top[0].ProductName)
	assert.True(t, decimal.RequireFromString("10.5").Equal(top[0].Revenue))

	rev, err := s.Revenue(ctx, since)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20.5").Equal(rev))
}
