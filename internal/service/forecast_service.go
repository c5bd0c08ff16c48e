package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/demand"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/reorder"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	defaultTrendWindowDays = 30
	topSellingLimit        = 10
	lowStockFactor         = 1.2
)

// Deps are the collaborators of a ForecastService. Cache, Narrator and Now
// are optional.
type Deps struct {
	Products repository.ProductRepository
	Sales    repository.SalesRepository
	Models   demand.ModelStore
	Cache    cache.ForecastCache
	Narrator reorder.Narrator
	Now      func() time.Time
}

// ForecastService is the entry point for training, forecasting and reorder
// advice on a single product.
type ForecastService struct {
	products   repository.ProductRepository
	sales      repository.SalesRepository
	models     demand.ModelStore
	cache      cache.ForecastCache
	trainer    *demand.Trainer
	forecaster *CachedForecaster
	advisor    *reorder.Advisor
	trendDays  int
	now        func() time.Time
}

func NewForecastService(cfg config.ForecastConfig, deps Deps) *ForecastService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	fc := deps.Cache
	if fc == nil {
		fc = cache.NewNoopForecastCache()
	}

	history := demand.NewHistoryExtractor(deps.Sales, cfg.MinObservations, now)
	trainer := demand.NewTrainer(history, deps.Models, demand.TrainerConfig{
		LookbackDays:    cfg.TrainingLookbackDays,
		WarmupDays:      cfg.WarmupDays,
		MinTrainingRows: cfg.MinTrainingRows,
	}, now)
	forecaster := NewCachedForecaster(demand.NewForecaster(
		history,
		deps.Models,
		demand.NewFallback(deps.Products, now),
		demand.ForecasterConfig{
			FeatureLookbackDays: cfg.FeatureLookbackDays,
			ConfidenceFromFit:   cfg.ConfidenceFromFit,
		},
	), fc)

	trendDays := cfg.TrendWindowDays
	if trendDays <= 0 {
		trendDays = defaultTrendWindowDays
	}

	return &ForecastService{
		products:   deps.Products,
		sales:      deps.Sales,
		models:     deps.Models,
		cache:      fc,
		trainer:    trainer,
		forecaster: forecaster,
		advisor:    reorder.NewAdvisor(deps.Products, forecaster, reorder.NewCalculator(), deps.Narrator),
		trendDays:  trendDays,
		now:        now,
	}
}

// Train fits and stores the product's model. Too little history is reported
// as an unsuccessful result, not an error.
func (s *ForecastService) Train(ctx context.Context, productID int64) (domain.TrainResult, error) {
	res := domain.TrainResult{ProductID: productID}

	model, err := s.trainer.Train(ctx, productID)
	if errors.Is(err, domain.ErrInsufficientHistory) {
		log.Warn().Err(err).Int64("product_id", productID).Msg("training skipped")
		res.Reason = err.Error()
		return res, nil
	}
	if err != nil {
		return res, err
	}

	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("failed to invalidate cached forecasts")
	}

	res.Success = true
	res.MAE = model.MAE
	res.R2Score = model.R2
	res.TrainingSamples = model.TrainingSamples
	return res, nil
}

func (s *ForecastService) Forecast(ctx context.Context, productID int64, horizon int) (domain.ForecastResult, error) {
	return s.forecaster.Forecast(ctx, productID, horizon)
}

// ReorderSuggestion returns nil without error for unknown products.
func (s *ForecastService) ReorderSuggestion(ctx context.Context, productID int64) (*domain.ReorderSuggestion, error) {
	sug, err := s.advisor.Suggest(ctx, productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		return nil, nil
	}
	return sug, err
}

// Trends summarizes the trailing window: best sellers, products close to
// their minimum level, revenue and the number of products flagged for reorder.
func (s *ForecastService) Trends(ctx context.Context, days int) (*domain.TrendReport, error) {
	if days <= 0 {
		days = s.trendDays
	}
	now := s.now()
	since := demand.Day(now).AddDate(0, 0, -days)

	top, err := s.sales.TopSelling(ctx, since, topSellingLimit)
	if err != nil {
		return nil, fmt.Errorf("top selling: %w", err)
	}
	revenue, err := s.sales.Revenue(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("revenue: %w", err)
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	report := &domain.TrendReport{
		PeriodDays:    days,
		TopSelling:    top,
		LowStock:      []domain.StockLevel{},
		TotalRevenue:  revenue,
		TotalProducts: len(products),
		AnalysisDate:  now,
	}
	if report.TopSelling == nil {
		report.TopSelling = []domain.ProductSales{}
	}
	for _, p := range products {
		if float64(p.Quantity) <= float64(p.MinStockLevel)*lowStockFactor {
			report.LowStock = append(report.LowStock, domain.StockLevel{
				ProductID:     p.ID,
				ProductName:   p.Name,
				Quantity:      p.Quantity,
				MinStockLevel: p.MinStockLevel,
			})
		}
		if p.ReorderSuggested {
			report.ProductsNeedingReorder++
		}
	}
	return report, nil
}

// Seasonality estimates month-of-year indices from the last year of sales.
func (s *ForecastService) Seasonality(ctx context.Context, productID int64) (*domain.SeasonalityReport, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id %d", domain.ErrInvalidInput, productID)
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	now := s.now()
	since := demand.Day(now).AddDate(0, 0, -demand.SeasonalityLookbackDays)
	sales, err := s.sales.FetchSales(ctx, productID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch sales for product %d: %w", productID, err)
	}

	report, err := demand.EstimateSeasonality(productID, sales, now)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteModel removes the product's model and its cached forecasts.
func (s *ForecastService) DeleteModel(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return fmt.Errorf("%w: product id %d", domain.ErrInvalidInput, productID)
	}
	if err := s.models.Delete(ctx, productID); err != nil {
		return fmt.Errorf("delete model for product %d: %w", productID, err)
	}
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("failed to invalidate cached forecasts")
	}
	return nil
}
