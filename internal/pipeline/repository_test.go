package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRunRepository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPostgresRunRepository(postgres.Wrap(sqlx.NewDb(raw, "postgres"), 1)), mock
}

func TestPostgresRunRepositoryCreateAndUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	started := time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC)
	run := &Run{ID: uuid.New(), Kind: KindTrain, Status: StatusPending, TotalProducts: 3, FailedProductIDs: []int64{}, StartedAt: started}

	mock.ExpectExec(`INSERT INTO pipeline_runs`).
		WithArgs(run.ID, "train", "pending", 3, 0, 0, 0, sqlmock.AnyArg(), started, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), run))

	done := started.Add(time.Minute)
	run.Status = StatusCompleted
	run.Succeeded, run.Failed = 2, 1
	run.FailedProductIDs = []int64{42}
	run.CompletedAt = &done
	mock.ExpectExec(`UPDATE pipeline_runs`).
		WithArgs("completed", 2, 0, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), "", run.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), run))

	mock.ExpectExec(`UPDATE pipeline_runs`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), run), ErrRunNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepositoryGet(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	started := time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC)
	cols := []string{"id", "kind", "status", "total_products", "succeeded", "skipped", "failed",
		"failed_product_ids", "started_at", "completed_at", "error_message"}

	failed, err := pq.Array([]int64{7, 9}).Value()
	require.NoError(t, err)
	mock.ExpectQuery(`FROM pipeline_runs WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			id.String(), "reorder", "completed", 10, 7, 1, 2, failed, started, started.Add(time.Minute), nil,
		))

	run, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, KindReorder, run.Kind)
	assert.Equal(t, []int64{7, 9}, run.FailedProductIDs)
	assert.Equal(t, time.Minute, run.Duration())
	assert.Empty(t, run.ErrorMessage)

	mock.ExpectQuery(`FROM pipeline_runs WHERE id = \$1`).WithArgs(id).WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrRunNotFound)
}
