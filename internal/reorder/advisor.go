package reorder

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	ShortHorizonDays = 7
	LongHorizonDays  = 30
)

type Forecaster interface {
	Forecast(ctx context.Context, productID int64, horizon int) (domain.ForecastResult, error)
}

// ProductStore reads product attributes and stores the prediction snapshot.
type ProductStore interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	UpdatePredictionCache(ctx context.Context, id int64, cache domain.PredictionCache) error
}

// Narrator optionally explains a suggestion in plain language.
type Narrator interface {
	Enabled() bool
	Explain(ctx context.Context, p *domain.Product, s domain.ReorderSuggestion) (string, error)
}

type Advisor struct {
	products   ProductStore
	forecaster Forecaster
	calc       *Calculator
	narrator   Narrator
}

// NewAdvisor wires an advisor. narrator may be nil.
func NewAdvisor(products ProductStore, forecaster Forecaster, calc *Calculator, narrator Narrator) *Advisor {
	if calc == nil {
		calc = NewCalculator()
	}
	return &Advisor{products: products, forecaster: forecaster, calc: calc, narrator: narrator}
}

// Suggest decides whether a product needs reordering and writes the result
// back onto the product's cached prediction fields. Unknown products return
// domain.ErrProductNotFound.
func (a *Advisor) Suggest(ctx context.Context, productID int64) (*domain.ReorderSuggestion, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id %d", domain.ErrInvalidInput, productID)
	}

	p, err := a.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Quantity < 0 {
		return nil, fmt.Errorf("%w: product %d has negative stock %d", domain.ErrInvalidInput, productID, p.Quantity)
	}

	f7, err := a.forecaster.Forecast(ctx, productID, ShortHorizonDays)
	if err != nil {
		return nil, fmt.Errorf("forecast %d days: %w", ShortHorizonDays, err)
	}
	f30, err := a.forecaster.Forecast(ctx, productID, LongHorizonDays)
	if err != nil {
		return nil, fmt.Errorf("forecast %d days: %w", LongHorizonDays, err)
	}

	s := a.calc.Calculate(p, f7, f30)

	cache := domain.PredictionCache{
		PredictedDemand7d:  s.PredictedDemand7d,
		PredictedDemand30d: s.PredictedDemand30d,
		ReorderSuggested:   s.NeedsReorder,
		ReorderQuantity:    s.SuggestedQuantity,
	}
	if err := a.products.UpdatePredictionCache(ctx, productID, cache); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("failed to write prediction cache")
	}

	if a.narrator != nil && a.narrator.Enabled() {
		insight, err := a.narrator.Explain(ctx, p, s)
		if err != nil {
			log.Debug().Err(err).Int64("product_id", productID).Msg("reorder narration unavailable")
		} else {
			s.Insight = insight
		}
	}

	return &s, nil
}
