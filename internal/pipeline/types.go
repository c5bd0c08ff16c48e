package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Kind names the batch operation a run performs.
type Kind string

const (
	KindTrain   Kind = "train"
	KindReorder Kind = "reorder"
)

// RunStatus represents the current state of a batch run
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Outcome of one product inside a run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Config holds configuration for a Runner
type Config struct {
	Workers int // Number of products processed concurrently
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// Run tracks a single batch execution over the product catalogue
type Run struct {
	ID               uuid.UUID  `json:"id"`
	Kind             Kind       `json:"kind"`
	Status           RunStatus  `json:"status"`
	TotalProducts    int        `json:"total_products"`
	Succeeded        int        `json:"succeeded"`
	Skipped          int        `json:"skipped"`
	Failed           int        `json:"failed"`
	FailedProductIDs []int64    `json:"failed_product_ids"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
}

// Duration is zero until the run completes.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ProductResult is the per-product record of a run.
type ProductResult struct {
	ProductID int64
	Outcome   Outcome
	Err       error
}

func (r *Run) tally(results []ProductResult) {
	r.Succeeded, r.Skipped, r.Failed = 0, 0, 0
	r.FailedProductIDs = r.FailedProductIDs[:0]
	for _, res := range results {
		switch res.Outcome {
		case OutcomeSucceeded:
			r.Succeeded++
		case OutcomeSkipped:
			r.Skipped++
		case OutcomeFailed:
			r.Failed++
			r.FailedProductIDs = append(r.FailedProductIDs, res.ProductID)
		}
	}
}
