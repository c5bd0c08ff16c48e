package demand

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastNoSalesUsesMinimumStock(t *testing.T) {
	f := newFixture(nil, fakeProducts{1: {ID: 1, MinStockLevel: 10, Quantity: 50}})

	res, err := f.forecaster.Forecast(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.False(t, res.ModelBased)
	assert.Equal(t, domain.ConfidenceLow, res.Confidence)
	assert.InDelta(t, 10.0/7.0, res.AverageDaily, 1e-9)
	assert.InDelta(t, 10.0, res.TotalDemand, 1e-9)
	assert.Len(t, res.Predictions, 7)
}

func TestForecastConstantDemandModel(t *testing.T) {
	f := newFixture(dailySales(1, 90, func(int) int { return 5 }), fakeProducts{1: {ID: 1}})
	_, err := f.trainer.Train(context.Background(), 1)
	require.NoError(t, err)

	res, err := f.forecaster.Forecast(context.Background(), 1, 30)
	require.NoError(t, err)

	assert.True(t, res.ModelBased)
	require.Len(t, res.Predictions, 30)
	for _, p := range res.Predictions {
		assert.InDelta(t, 5, p, 1e-6)
	}
	assert.InDelta(t, 150, res.TotalDemand, 1e-6)
	assert.InDelta(t, 5, res.AverageDaily, 1e-6)
	// a constant target is a degenerate fit
	assert.Equal(t, domain.ConfidenceLow, res.Confidence)
}

func TestForecastDegenerateModelIsLowEvenWhenScoredByFit(t *testing.T) {
	f := newFixture(dailySales(1, 90, func(int) int { return 5 }), fakeProducts{1: {ID: 1}})
	_, err := f.trainer.Train(context.Background(), 1)
	require.NoError(t, err)

	fit := NewForecaster(f.history, f.store, NewFallback(f.products, fixedClock), ForecasterConfig{ConfidenceFromFit: true})
	res, err := fit.Forecast(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.True(t, res.ModelBased)
	assert.Equal(t, domain.ConfidenceLow, res.Confidence)
	assert.NotEqual(t, domain.ConfidenceNone, res.Confidence)
	assert.InDelta(t, 35, res.TotalDemand, 1e-6)
}

func TestForecastModelConfidenceDefaultsToMedium(t *testing.T) {
	f := newFixture(dailySales(4, 90, wavy), fakeProducts{4: {ID: 4}})
	_, err := f.trainer.Train(context.Background(), 4)
	require.NoError(t, err)

	res, err := f.forecaster.Forecast(context.Background(), 4, 7)
	require.NoError(t, err)
	assert.True(t, res.ModelBased)
	assert.Equal(t, domain.ConfidenceMedium, res.Confidence)

	fit := NewForecaster(f.history, f.store, NewFallback(f.products, fixedClock), ForecasterConfig{ConfidenceFromFit: true})
	res, err = fit.Forecast(context.Background(), 4, 7)
	require.NoError(t, err)
	m, _ := f.store.Load(context.Background(), 4)
	assert.Equal(t, ConfidenceFromFit(m.R2), res.Confidence)
}

func TestForecastNeverNegative(t *testing.T) {
	patterns := map[string]func(int) int{
		"zeros":     func(int) int { return 0 },
		"collapse":  func(i int) int { return max(0, 40-i) },
		"spiky":     func(i int) int { return (i % 9) * (i % 4) },
		"weekend":   func(i int) int { return 10 * (i % 7 / 5) },
		"late-drop": func(i int) int {
			if i < 80 {
				return 30
			}
			return 0
		},
	}
	for name, qty := range patterns {
		t.Run(name, func(t *testing.T) {
			f := newFixture(dailySales(5, 90, qty), fakeProducts{5: {ID: 5}})
			_, err := f.trainer.Train(context.Background(), 5)
			require.NoError(t, err)

			res, err := f.forecaster.Forecast(context.Background(), 5, 60)
			require.NoError(t, err)
			assert.True(t, res.ModelBased)
			for i, p := range res.Predictions {
				assert.GreaterOrEqual(t, p, 0.0, "day %d", i)
				assert.False(t, math.IsNaN(p), "day %d", i)
			}
			assert.GreaterOrEqual(t, res.TotalDemand, 0.0)
		})
	}
}

func TestForecastFallsBackWhenRecentHistoryIsShort(t *testing.T) {
	// trained on sales that stopped 70 days ago
	old := dailySales(6, 90, wavy)
	f := newFixture(old, fakeProducts{6: {ID: 6, AverageDailySales: 2.5}})
	_, err := f.trainer.Train(context.Background(), 6)
	require.NoError(t, err)

	cutoff := Day(testNow).AddDate(0, 0, -70)
	var stale []domain.SaleObservation
	for _, s := range old {
		if s.Date.Before(cutoff) {
			stale = append(stale, s)
		}
	}
	f.sales.rows = stale

	res, err := f.forecaster.Forecast(context.Background(), 6, 7)
	require.NoError(t, err)
	assert.False(t, res.ModelBased)
	assert.Equal(t, 2.5, res.AverageDaily)
}

func TestForecastCorruptModelFallsBack(t *testing.T) {
	f := newFixture(nil, fakeProducts{8: {ID: 8, AverageDailySales: 3}})
	require.NoError(t, f.store.Save(context.Background(), &Model{ProductID: 8, Features: []string{"x"}}))

	res, err := f.forecaster.Forecast(context.Background(), 8, 3)
	require.NoError(t, err)
	assert.False(t, res.ModelBased)
	assert.Equal(t, []float64{3, 3, 3}, res.Predictions)
}

func TestForecastUnknownProduct(t *testing.T) {
	f := newFixture(nil, fakeProducts{})
	res, err := f.forecaster.Forecast(context.Background(), 99, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.ConfidenceNone, res.Confidence)
	assert.Zero(t, res.TotalDemand)
}

func TestForecastRejectsInvalidHorizon(t *testing.T) {
	f := newFixture(nil, fakeProducts{1: {ID: 1}})
	_, err := f.forecaster.Forecast(context.Background(), 1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.forecaster.Forecast(context.Background(), 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFallbackTiers(t *testing.T) {
	fb := NewFallback(fakeProducts{}, fixedClock)

	assert.Equal(t, 4.0, fb.DailyAverage(&domain.Product{AverageDailySales: 4, TotalSold: 900}))

	created := testNow.Add(-100 * 24 * time.Hour)
	assert.InDelta(t, 2.0, fb.DailyAverage(&domain.Product{TotalSold: 200, CreatedAt: created}), 1e-9)
	// products younger than 30 days are spread over 30
	assert.InDelta(t, 1.0, fb.DailyAverage(&domain.Product{TotalSold: 30, CreatedAt: testNow.Add(-48 * time.Hour)}), 1e-9)
	assert.InDelta(t, 0.1, fb.DailyAverage(&domain.Product{TotalSold: 1, CreatedAt: created}), 1e-9)

	assert.InDelta(t, 1.0, fb.DailyAverage(&domain.Product{MinStockLevel: 7}), 1e-9)
	assert.InDelta(t, 0.2, fb.DailyAverage(&domain.Product{MinStockLevel: 1}), 1e-9)

	assert.InDelta(t, 2.5, fb.DailyAverage(&domain.Product{Quantity: 50}), 1e-9)
	assert.InDelta(t, 5.0, fb.DailyAverage(&domain.Product{Quantity: 1000}), 1e-9)
	assert.InDelta(t, 0.2, fb.DailyAverage(&domain.Product{Quantity: 0}), 1e-9)
	assert.InDelta(t, 0.2, fb.DailyAverage(&domain.Product{Quantity: -5}), 1e-9)
}

func TestEstimateSeasonality(t *testing.T) {
	var sales []domain.SaleObservation
	for i := 0; i < 20; i++ {
		sales = append(sales,
			domain.SaleObservation{ProductID: 1, Date: time.Date(2024, 5, 1+i, 0, 0, 0, 0, time.UTC), Quantity: 3},
			domain.SaleObservation{ProductID: 1, Date: time.Date(2024, 6, 1+i, 0, 0, 0, 0, time.UTC), Quantity: 1},
		)
	}
	// outside the one-year window
	sales = append(sales, domain.SaleObservation{ProductID: 1, Date: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), Quantity: 500})

	rep, err := EstimateSeasonality(1, sales, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.MonthsAnalyzed)
	assert.InDelta(t, 40, rep.MonthlyAverage, 1e-9)
	assert.InDelta(t, 1.5, rep.Indices[5], 1e-9)
	assert.InDelta(t, 0.5, rep.Indices[6], 1e-9)
	assert.Equal(t, 0.5, rep.Indices[1])
	assert.Equal(t, 6, rep.CurrentMonth)
	assert.Len(t, rep.Indices, 12)

	_, err = EstimateSeasonality(1, sales[:10], testNow)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}
