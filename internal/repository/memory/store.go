// Package memory keeps products and sales in process memory. It backs tests
// and one-off CLI runs over imported files.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	sales    []domain.SaleObservation
}

func NewStore() *Store {
	return &Store{products: make(map[int64]*domain.Product)}
}

// PutProduct inserts or replaces a product.
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
	}
	return s.snapshot(p), nil
}

func (s *Store) ListProducts(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, s.snapshot(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListProductIDs(ctx context.Context) ([]int64, error) {
	products, _ := s.ListProducts(ctx)
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids, nil
}

func (s *Store) UpdatePredictionCache(_ context.Context, id int64, cache domain.PredictionCache) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
	}
	p.PredictedDemand7d = cache.PredictedDemand7d
	p.PredictedDemand30d = cache.PredictedDemand30d
	p.ReorderSuggested = cache.ReorderSuggested
	p.ReorderQuantity = cache.ReorderQuantity
	return nil
}

// snapshot copies p with TotalSold derived from the ledger. Callers hold mu.
func (s *Store) snapshot(p *domain.Product) *domain.Product {
	cp := *p
	total := 0
	for _, sale := range s.sales {
		if sale.ProductID == p.ID {
			total += sale.Quantity
		}
	}
	cp.TotalSold = total
	return &cp
}

func (s *Store) FetchSales(_ context.Context, productID int64, since time.Time) ([]domain.SaleObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SaleObservation
	for _, sale := range s.sales {
		if sale.ProductID == productID && !sale.Date.Before(since) {
			out = append(out, sale)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) InsertSales(_ context.Context, sales []domain.SaleObservation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sales...)
	return len(sales), nil
}

func (s *Store) TopSelling(_ context.Context, since time.Time, limit int) ([]domain.ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := make(map[int64]*domain.ProductSales)
	for _, sale := range s.sales {
		if sale.Date.Before(since) {
			continue
		}
		ps, ok := agg[sale.ProductID]
		if !ok {
			ps = &domain.ProductSales{ProductID: sale.ProductID, Revenue: decimal.Zero}
			if p, found := s.products[sale.ProductID]; found {
				ps.ProductName = p.Name
			}
			agg[sale.ProductID] = ps
		}
		ps.UnitsSold += sale.Quantity
		ps.Revenue = ps.Revenue.Add(sale.UnitPrice.Mul(decimal.NewFromInt(int64(sale.Quantity))))
	}

	out := make([]domain.ProductSales, 0, len(agg))
	for _, ps := range agg {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitsSold != out[j].UnitsSold {
			return out[i].UnitsSold > out[j].UnitsSold
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Revenue(_ context.Context, since time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, sale := range s.sales {
		if !sale.Date.Before(since) {
			total = total.Add(sale.UnitPrice.Mul(decimal.NewFromInt(int64(sale.Quantity))))
		}
	}
	return total, nil
}
