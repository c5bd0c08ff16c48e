package demand

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	minDaysExisting  = 30
	minStockCoverage = 7.0
	stockBurnRate    = 0.05
)

// ProductReader resolves product attributes. GetProduct returns
// domain.ErrProductNotFound for unknown ids.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// Fallback estimates demand from stored product attributes when no model
// can be used.
type Fallback struct {
	products ProductReader
	now      func() time.Time
}

func NewFallback(products ProductReader, now func() time.Time) *Fallback {
	if now == nil {
		now = time.Now
	}
	return &Fallback{products: products, now: now}
}

// Forecast repeats a heuristic daily average over the horizon. An unknown
// product yields a zero forecast with confidence "none".
func (f *Fallback) Forecast(ctx context.Context, productID int64, horizon int) (domain.ForecastResult, error) {
	p, err := f.products.GetProduct(ctx, productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		return flatForecast(productID, horizon, 0, domain.ConfidenceNone), nil
	}
	if err != nil {
		return domain.ForecastResult{}, err
	}
	return flatForecast(productID, horizon, f.DailyAverage(p), domain.ConfidenceLow), nil
}

// DailyAverage picks, in order: the stored daily average, lifetime units over
// the product's age, a minimum-stock guess, then a share of on-hand stock.
func (f *Fallback) DailyAverage(p *domain.Product) float64 {
	if p.AverageDailySales > 0 {
		return p.AverageDailySales
	}
	if p.TotalSold > 0 {
		days := minDaysExisting
		if !p.CreatedAt.IsZero() {
			days = max(int(f.now().Sub(p.CreatedAt).Hours()/24), minDaysExisting)
		}
		return math.Max(0.1, float64(p.TotalSold)/float64(days))
	}
	if p.MinStockLevel > 0 {
		return math.Max(0.2, float64(p.MinStockLevel)/minStockCoverage)
	}
	return math.Min(5, math.Max(0.2, float64(max(p.Quantity, 0))*stockBurnRate))
}

func flatForecast(productID int64, horizon int, daily float64, c domain.Confidence) domain.ForecastResult {
	preds := make([]float64, horizon)
	for i := range preds {
		preds[i] = daily
	}
	return domain.ForecastResult{
		ProductID:    productID,
		Predictions:  preds,
		TotalDemand:  daily * float64(horizon),
		AverageDaily: daily,
		Confidence:   c,
	}
}
