package demand

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultWarmupDays      = 30
	DefaultMinTrainingRows = 14
)

type TrainerConfig struct {
	LookbackDays    int
	WarmupDays      int
	MinTrainingRows int
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		LookbackDays:    DefaultTrainingLookbackDays,
		WarmupDays:      DefaultWarmupDays,
		MinTrainingRows: DefaultMinTrainingRows,
	}
}

// Trainer fits and persists per-product demand models.
type Trainer struct {
	history *HistoryExtractor
	store   ModelStore
	cfg     TrainerConfig
	now     func() time.Time
}

func NewTrainer(history *HistoryExtractor, store ModelStore, cfg TrainerConfig, now func() time.Time) *Trainer {
	def := DefaultTrainerConfig()
	if cfg.LookbackDays < 1 {
		cfg.LookbackDays = def.LookbackDays
	}
	if cfg.WarmupDays < 0 {
		cfg.WarmupDays = def.WarmupDays
	}
	if cfg.MinTrainingRows < 1 {
		cfg.MinTrainingRows = def.MinTrainingRows
	}
	if now == nil {
		now = time.Now
	}
	return &Trainer{history: history, store: store, cfg: cfg, now: now}
}

// Train fits a model on the product's recent history and overwrites any
// previously stored model. Short histories return domain.ErrInsufficientHistory
// and leave the store untouched.
func (t *Trainer) Train(ctx context.Context, productID int64) (*Model, error) {
	records, err := t.history.Extract(ctx, productID, t.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	model, err := t.Fit(productID, records)
	if err != nil {
		return nil, err
	}

	if err := t.store.Save(ctx, model); err != nil {
		return nil, fmt.Errorf("save model for product %d: %w", productID, err)
	}

	log.Info().
		Int64("product_id", productID).
		Int("samples", model.TrainingSamples).
		Float64("mae", model.MAE).
		Float64("r2", model.R2).
		Bool("degenerate", model.Degenerate).
		Msg("demand model trained")

	return model, nil
}

// Fit trains on an already extracted series without touching the store.
// The first WarmupDays rows are dropped so moving averages are settled.
func (t *Trainer) Fit(productID int64, records []domain.DailyDemandRecord) (*Model, error) {
	features := BuildFeatures(records)
	if len(features)-t.cfg.WarmupDays < t.cfg.MinTrainingRows {
		return nil, fmt.Errorf("%w: product %d has %d feature rows, need %d after %d warmup days",
			domain.ErrInsufficientHistory, productID, len(features), t.cfg.MinTrainingRows, t.cfg.WarmupDays)
	}
	features = features[t.cfg.WarmupDays:]

	x := make([][]float64, len(features))
	y := make([]float64, len(features))
	for i, fv := range features {
		x[i] = fv.Values()
		y[i] = fv.Quantity
	}

	scaler, err := FitScaler(x)
	if err != nil {
		return nil, err
	}
	scaled := make([][]float64, len(x))
	for i, row := range x {
		scaled[i] = scaler.Transform(row)
	}

	reg, err := FitOLS(scaled, y)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", productID, err)
	}

	predicted := make([]float64, len(scaled))
	for i, row := range scaled {
		predicted[i] = reg.Predict(row)
	}
	mae, r2 := fitMetrics(y, predicted)

	return &Model{
		ProductID:       productID,
		Features:        append([]string(nil), domain.FeatureColumns...),
		Scaler:          scaler,
		Regression:      reg,
		TrainingSamples: len(features),
		MAE:             mae,
		R2:              r2,
		Degenerate:      constant(y),
		TrainedAt:       t.now().UTC(),
	}, nil
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
