package service

import (
	"context"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/reorder"
	"github.com/rs/zerolog/log"
)

// CachedForecaster serves forecasts from the forecast cache and fills it on
// a miss. Cache failures degrade to an uncached forecast.
type CachedForecaster struct {
	next  reorder.Forecaster
	cache cache.ForecastCache
}

func NewCachedForecaster(next reorder.Forecaster, c cache.ForecastCache) *CachedForecaster {
	if c == nil {
		c = cache.NewNoopForecastCache()
	}
	return &CachedForecaster{next: next, cache: c}
}

func (f *CachedForecaster) Forecast(ctx context.Context, productID int64, horizon int) (domain.ForecastResult, error) {
	if horizon >= 1 && productID > 0 {
		if res, ok, err := f.cache.Get(ctx, productID, horizon); err == nil && ok {
			return *res, nil
		} else if err != nil {
			log.Warn().Err(err).Int64("product_id", productID).Int("horizon", horizon).Msg("forecast cache get failed")
		}
	}

	res, err := f.next.Forecast(ctx, productID, horizon)
	if err != nil {
		return res, err
	}

	// unknown products are not cached so a later insert is seen immediately
	if res.Confidence != domain.ConfidenceNone {
		if err := f.cache.Set(ctx, res, horizon); err != nil {
			log.Warn().Err(err).Int64("product_id", productID).Int("horizon", horizon).Msg("forecast cache set failed")
		}
	}
	return res, nil
}
