package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type ProductLister interface {
	ListProductIDs(ctx context.Context) ([]int64, error)
}

type Trainer interface {
	Train(ctx context.Context, productID int64) (domain.TrainResult, error)
}

type Advisor interface {
	ReorderSuggestion(ctx context.Context, productID int64) (*domain.ReorderSuggestion, error)
}

// Runner fans training or reorder advice out over every product. Products
// are independent, so the only shared state is the run record.
type Runner struct {
	products ProductLister
	trainer  Trainer
	advisor  Advisor
	runs     RunRepository
	cfg      Config
	now      func() time.Time
}

func NewRunner(products ProductLister, trainer Trainer, advisor Advisor, runs RunRepository, cfg Config) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultConfig().Workers
	}
	if runs == nil {
		runs = NewMemoryRunRepository()
	}
	return &Runner{products: products, trainer: trainer, advisor: advisor, runs: runs, cfg: cfg, now: time.Now}
}

// TrainAll trains a model for every product. Products with too little
// history are counted as skipped.
func (r *Runner) TrainAll(ctx context.Context) (*Run, []domain.TrainResult, error) {
	ids, err := r.products.ListProductIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}

	trained := make([]domain.TrainResult, len(ids))
	run, err := r.execute(ctx, KindTrain, ids, func(ctx context.Context, i int, id int64) (Outcome, error) {
		res, err := r.trainer.Train(ctx, id)
		if err != nil {
			return OutcomeFailed, err
		}
		trained[i] = res
		if !res.Success {
			return OutcomeSkipped, nil
		}
		return OutcomeSucceeded, nil
	})
	return run, compactTrainResults(trained), err
}

// ReorderAll computes reorder suggestions for every product, most urgent
// first.
func (r *Runner) ReorderAll(ctx context.Context) (*Run, []domain.ReorderSuggestion, error) {
	ids, err := r.products.ListProductIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}

	suggestions := make([]*domain.ReorderSuggestion, len(ids))
	run, err := r.execute(ctx, KindReorder, ids, func(ctx context.Context, i int, id int64) (Outcome, error) {
		s, err := r.advisor.ReorderSuggestion(ctx, id)
		if err != nil {
			return OutcomeFailed, err
		}
		if s == nil {
			// removed between listing and advising
			return OutcomeSkipped, nil
		}
		suggestions[i] = s
		return OutcomeSucceeded, nil
	})

	out := make([]domain.ReorderSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s != nil {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return domain.UrgencyOrder(out[i].Urgency) < domain.UrgencyOrder(out[j].Urgency)
	})
	return run, out, err
}

type productFunc func(ctx context.Context, i int, productID int64) (Outcome, error)

func (r *Runner) execute(ctx context.Context, kind Kind, ids []int64, fn productFunc) (*Run, error) {
	run := &Run{
		ID:               uuid.New(),
		Kind:             kind,
		Status:           StatusPending,
		TotalProducts:    len(ids),
		FailedProductIDs: []int64{},
		StartedAt:        r.now().UTC(),
	}
	if err := r.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	logger := log.With().Str("run_id", run.ID.String()).Str("kind", string(kind)).Logger()
	logger.Info().Int("products", len(ids)).Int("workers", r.cfg.Workers).Msg("batch run started")

	run.Status = StatusProcessing
	if err := r.runs.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update run: %w", err)
	}

	results := make([]ProductResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := fn(gctx, i, id)
			results[i] = ProductResult{ProductID: id, Outcome: outcome, Err: err}
			if err != nil {
				// cancellation aborts the run, anything else is this product's problem
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Warn().Err(err).Int64("product_id", id).Msg("product failed")
			}
			return nil
		})
	}
	groupErr := g.Wait()

	run.tally(results)
	completed := r.now().UTC()
	run.CompletedAt = &completed
	switch {
	case groupErr != nil:
		run.Status = StatusFailed
		run.ErrorMessage = groupErr.Error()
	case run.TotalProducts > 0 && run.Failed == run.TotalProducts:
		run.Status = StatusFailed
		run.ErrorMessage = "every product failed"
	default:
		run.Status = StatusCompleted
	}

	// record the outcome even if the caller's context is gone
	if err := r.runs.Update(context.WithoutCancel(ctx), run); err != nil {
		logger.Error().Err(err).Msg("failed to record run outcome")
	}

	logger.Info().
		Str("status", string(run.Status)).
		Int("succeeded", run.Succeeded).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Dur("duration", run.Duration()).
		Msg("batch run finished")

	if groupErr != nil {
		return run, fmt.Errorf("run %s: %w", run.ID, groupErr)
	}
	return run, nil
}

func compactTrainResults(in []domain.TrainResult) []domain.TrainResult {
	out := make([]domain.TrainResult, 0, len(in))
	for _, res := range in {
		if res.ProductID != 0 {
			out = append(out, res)
		}
	}
	return out
}
