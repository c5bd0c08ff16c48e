package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idList []int64

func (l idList) ListProductIDs(context.Context) ([]int64, error) { return l, nil }

type scriptedTrainer struct {
	mu       sync.Mutex
	seen     []int64
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *scriptedTrainer) Train(_ context.Context, id int64) (domain.TrainResult, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	s.mu.Lock()
	s.seen = append(s.seen, id)
	s.mu.Unlock()

	switch {
	case id%10 == 3:
		return domain.TrainResult{ProductID: id}, fmt.Errorf("sales store unreachable for %d", id)
	case id%10 == 5:
		return domain.TrainResult{ProductID: id, Reason: "insufficient history"}, nil
	default:
		return domain.TrainResult{ProductID: id, Success: true, TrainingSamples: 61}, nil
	}
}

type scriptedAdvisor map[int64]*domain.ReorderSuggestion

func (a scriptedAdvisor) ReorderSuggestion(_ context.Context, id int64) (*domain.ReorderSuggestion, error) {
	if id < 0 {
		return nil, errors.New("boom")
	}
	return a[id], nil
}

func TestTrainAllCountsOutcomes(t *testing.T) {
	trainer := &scriptedTrainer{}
	runs := NewMemoryRunRepository()
	ids := idList{1, 2, 3, 4, 5, 6, 13, 15, 21}
	r := NewRunner(ids, trainer, nil, runs, Config{Workers: 3})

	run, results, err := r.TrainAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, KindTrain, run.Kind)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 9, run.TotalProducts)
	assert.Equal(t, 5, run.Succeeded)
	assert.Equal(t, 2, run.Skipped)
	assert.Equal(t, 2, run.Failed)
	assert.ElementsMatch(t, []int64{3, 13}, run.FailedProductIDs)
	assert.NotNil(t, run.CompletedAt)
	assert.Len(t, results, 7)

	assert.ElementsMatch(t, []int64(ids), trainer.seen)
	assert.LessOrEqual(t, trainer.peak.Load(), int32(3))

	stored, err := runs.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, run.FailedProductIDs, stored.FailedProductIDs)
}

func TestTrainAllEveryProductFailed(t *testing.T) {
	r := NewRunner(idList{3, 13}, &scriptedTrainer{}, nil, nil, Config{})
	run, _, err := r.TrainAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "every product failed", run.ErrorMessage)
}

func TestTrainAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runs := NewMemoryRunRepository()
	r := NewRunner(idList{1, 2}, &scriptedTrainer{}, nil, runs, Config{Workers: 1})
	run, _, err := r.TrainAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, run.Status)

	stored, err := runs.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
}

func TestReorderAllSortsByUrgency(t *testing.T) {
	advisor := scriptedAdvisor{
		1: {ProductID: 1, Urgency: domain.UrgencyNone},
		2: {ProductID: 2, Urgency: domain.UrgencyCritical, NeedsReorder: true},
		3: {ProductID: 3, Urgency: domain.UrgencyMedium, NeedsReorder: true},
		4: {ProductID: 4, Urgency: domain.UrgencyHigh, NeedsReorder: true},
	}
	r := NewRunner(idList{1, 2, 3, 4, 99, -1}, nil, advisor, nil, Config{Workers: 2})

	run, suggestions, err := r.ReorderAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, KindReorder, run.Kind)
	assert.Equal(t, 4, run.Succeeded)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, []int64{-1}, run.FailedProductIDs)

	require.Len(t, suggestions, 4)
	var order []int64
	for _, s := range suggestions {
		order = append(order, s.ProductID)
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, order)
}

func TestMemoryRunRepositoryRecent(t *testing.T) {
	runs := NewMemoryRunRepository()
	r := NewRunner(idList{1}, &scriptedTrainer{}, scriptedAdvisor{}, runs, Config{})
	for i := 0; i < 3; i++ {
		_, _, err := r.TrainAll(context.Background())
		require.NoError(t, err)
	}
	_, _, err := r.ReorderAll(context.Background())
	require.NoError(t, err)

	recent, err := runs.Recent(context.Background(), KindTrain, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	for _, run := range recent {
		assert.Equal(t, KindTrain, run.Kind)
	}

	err = runs.Update(context.Background(), &Run{})
	assert.ErrorIs(t, err, ErrRunNotFound)
}
