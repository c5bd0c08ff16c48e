package demand

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Model is a trained per-product demand regression together with the scaler
// its inputs must go through.
type Model struct {
	ProductID       int64      `json:"product_id"`
	Features        []string   `json:"features"`
	Scaler          Scaler     `json:"scaler"`
	Regression      Regression `json:"regression"`
	TrainingSamples int        `json:"training_samples"`
	MAE             float64    `json:"mae"`
	R2              float64    `json:"r2_score"`
	Degenerate      bool       `json:"degenerate,omitempty"`
	TrainedAt       time.Time  `json:"trained_at"`
}

// ModelStore persists trained models keyed by product id. Load returns
// domain.ErrModelNotFound when no artifact exists.
type ModelStore interface {
	Save(ctx context.Context, m *Model) error
	Load(ctx context.Context, productID int64) (*Model, error)
	Delete(ctx context.Context, productID int64) error
}

// Predict returns the non-negative predicted quantity for one feature row.
func (m *Model) Predict(fv domain.FeatureVector) float64 {
	v := m.Regression.Predict(m.Scaler.Transform(fv.Values()))
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Validate rejects artifacts that cannot be applied to the current feature set.
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("nil model")
	}
	if !slices.Equal(m.Features, domain.FeatureColumns) {
		return fmt.Errorf("model for product %d has feature set %v", m.ProductID, m.Features)
	}
	cols := len(domain.FeatureColumns)
	if err := m.Scaler.validate(cols); err != nil {
		return fmt.Errorf("model for product %d: %w", m.ProductID, err)
	}
	if len(m.Regression.Coefficients) != cols {
		return fmt.Errorf("model for product %d has %d coefficients, want %d",
			m.ProductID, len(m.Regression.Coefficients), cols)
	}
	for _, c := range m.Regression.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("model for product %d has non-finite coefficients", m.ProductID)
		}
	}
	return nil
}

// ConfidenceFromFit maps in-sample R² to a confidence tier.
func ConfidenceFromFit(r2 float64) domain.Confidence {
	switch {
	case r2 >= 0.7:
		return domain.ConfidenceHigh
	case r2 >= 0.3:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
