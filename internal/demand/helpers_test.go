package demand

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 6, 30, 15, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeSales struct {
	rows  []domain.SaleObservation
	err   error
	calls int
}

func (f *fakeSales) FetchSales(_ context.Context, productID int64, since time.Time) ([]domain.SaleObservation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.SaleObservation
	for _, s := range f.rows {
		if s.ProductID == productID && !s.Date.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

// dailySales records one sale per day for the last `days` days, today included.
func dailySales(productID int64, days int, qty func(i int) int) []domain.SaleObservation {
	today := Day(testNow)
	out := make([]domain.SaleObservation, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, domain.SaleObservation{
			ProductID: productID,
			Date:      today.AddDate(0, 0, -(days - 1 - i)),
			Quantity:  qty(i),
			UnitPrice: decimal.NewFromInt(10),
		})
	}
	return out
}

type fakeProducts map[int64]*domain.Product

func (f fakeProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

type memModelStore struct {
	mu     sync.Mutex
	models map[int64]*Model
	saves  int
}

func newMemModelStore() *memModelStore {
	return &memModelStore{models: map[int64]*Model{}}
}

func (s *memModelStore) Save(_ context.Context, m *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.models[m.ProductID] = m
	return nil
}

func (s *memModelStore) Load(_ context.Context, id int64) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	if !ok {
		return nil, domain.ErrModelNotFound
	}
	return m, nil
}

func (s *memModelStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.models, id)
	return nil
}

type fixture struct {
	sales      *fakeSales
	products   fakeProducts
	store      *memModelStore
	history    *HistoryExtractor
	trainer    *Trainer
	forecaster *Forecaster
}

func newFixture(sales []domain.SaleObservation, products fakeProducts) *fixture {
	f := &fixture{
		sales:    &fakeSales{rows: sales},
		products: products,
		store:    newMemModelStore(),
	}
	f.history = NewHistoryExtractor(f.sales, DefaultMinObservations, fixedClock)
	f.trainer = NewTrainer(f.history, f.store, DefaultTrainerConfig(), fixedClock)
	f.forecaster = NewForecaster(f.history, f.store, NewFallback(products, fixedClock), ForecasterConfig{})
	return f
}
