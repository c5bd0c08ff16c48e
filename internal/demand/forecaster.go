package demand

import (
	"context"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
)

type ForecasterConfig struct {
	FeatureLookbackDays int
	ConfidenceFromFit   bool
}

// Forecaster projects daily demand with a stored model, or the heuristic
// fallback when no usable model or recent history exists.
type Forecaster struct {
	history  *HistoryExtractor
	store    ModelStore
	fallback *Fallback
	cfg      ForecasterConfig
}

func NewForecaster(history *HistoryExtractor, store ModelStore, fallback *Fallback, cfg ForecasterConfig) *Forecaster {
	if cfg.FeatureLookbackDays < 1 {
		cfg.FeatureLookbackDays = DefaultFeatureLookbackDays
	}
	return &Forecaster{history: history, store: store, fallback: fallback, cfg: cfg}
}

func (f *Forecaster) Forecast(ctx context.Context, productID int64, horizon int) (domain.ForecastResult, error) {
	if productID <= 0 {
		return domain.ForecastResult{}, fmt.Errorf("%w: product id %d", domain.ErrInvalidInput, productID)
	}
	if horizon < 1 {
		return domain.ForecastResult{}, fmt.Errorf("%w: horizon %d days", domain.ErrInvalidInput, horizon)
	}

	logger := log.With().Int64("product_id", productID).Int("horizon", horizon).Logger()

	model, err := f.store.Load(ctx, productID)
	if err == nil {
		err = model.Validate()
	}
	if err != nil {
		if !errors.Is(err, domain.ErrModelNotFound) {
			logger.Warn().Err(err).Msg("demand model unusable, using heuristic")
		}
		return f.fallback.Forecast(ctx, productID, horizon)
	}

	records, err := f.history.Extract(ctx, productID, f.cfg.FeatureLookbackDays)
	if errors.Is(err, domain.ErrInsufficientHistory) {
		logger.Debug().Err(err).Msg("recent history too short, using heuristic")
		return f.fallback.Forecast(ctx, productID, horizon)
	}
	if err != nil {
		return domain.ForecastResult{}, err
	}

	features := BuildFeatures(records)
	template := features[len(features)-1]

	preds := make([]float64, 0, horizon)
	var total float64
	for _, fv := range FutureFeatures(template, horizon) {
		p := model.Predict(fv)
		preds = append(preds, p)
		total += p
	}

	return domain.ForecastResult{
		ProductID:    productID,
		Predictions:  preds,
		TotalDemand:  total,
		AverageDaily: total / float64(horizon),
		Confidence:   f.confidence(model),
		ModelBased:   true,
	}, nil
}

func (f *Forecaster) confidence(m *Model) domain.Confidence {
	// A constant target still yields a usable forecast. none stays reserved
	// for products with no history at all, which forecast zero and are never
	// cached, so low is the lowest tier that carries predictions.
	if m.Degenerate {
		return domain.ConfidenceLow
	}
	if f.cfg.ConfidenceFromFit {
		return ConfidenceFromFit(m.R2)
	}
	return domain.ConfidenceMedium
}
