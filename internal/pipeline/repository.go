package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrRunNotFound = errors.New("run not found")

// RunRepository handles persistence of batch run tracking
type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	Recent(ctx context.Context, kind Kind, limit int) ([]*Run, error)
}

// PostgresRunRepository stores runs in the pipeline_runs table:
//
//	id UUID PRIMARY KEY, kind TEXT, status TEXT, total_products INT,
//	succeeded INT, skipped INT, failed INT, failed_product_ids BIGINT[],
//	started_at TIMESTAMPTZ, completed_at TIMESTAMPTZ NULL, error_message TEXT
type PostgresRunRepository struct {
	db *postgres.DB
}

func NewPostgresRunRepository(db *postgres.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

type runRow struct {
	ID               uuid.UUID      `db:"id"`
	Kind             string         `db:"kind"`
	Status           string         `db:"status"`
	TotalProducts    int            `db:"total_products"`
	Succeeded        int            `db:"succeeded"`
	Skipped          int            `db:"skipped"`
	Failed           int            `db:"failed"`
	FailedProductIDs pq.Int64Array  `db:"failed_product_ids"`
	StartedAt        time.Time      `db:"started_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
	ErrorMessage     sql.NullString `db:"error_message"`
}

func (r runRow) toRun() *Run {
	run := &Run{
		ID:               r.ID,
		Kind:             Kind(r.Kind),
		Status:           RunStatus(r.Status),
		TotalProducts:    r.TotalProducts,
		Succeeded:        r.Succeeded,
		Skipped:          r.Skipped,
		Failed:           r.Failed,
		FailedProductIDs: []int64(r.FailedProductIDs),
		StartedAt:        r.StartedAt,
		ErrorMessage:     r.ErrorMessage.String,
	}
	if run.FailedProductIDs == nil {
		run.FailedProductIDs = []int64{}
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		run.CompletedAt = &t
	}
	return run
}

const runColumns = `id, kind, status, total_products, succeeded, skipped, failed,
	failed_product_ids, started_at, completed_at, error_message`

// Create inserts a new run record
func (r *PostgresRunRepository) Create(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO pipeline_runs (
			id, kind, status, total_products, succeeded, skipped, failed,
			failed_product_ids, started_at, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, string(run.Kind), string(run.Status), run.TotalProducts,
		run.Succeeded, run.Skipped, run.Failed,
		pq.Array(run.FailedProductIDs), run.StartedAt, run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Update writes status, totals and completion of an existing run
func (r *PostgresRunRepository) Update(ctx context.Context, run *Run) error {
	query := `
		UPDATE pipeline_runs
		SET status = $1, succeeded = $2, skipped = $3, failed = $4,
		    failed_product_ids = $5, completed_at = $6, error_message = $7
		WHERE id = $8
	`

	res, err := r.db.ExecContext(ctx, query,
		string(run.Status), run.Succeeded, run.Skipped, run.Failed,
		pq.Array(run.FailedProductIDs), run.CompletedAt, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

// Get retrieves a run by ID
func (r *PostgresRunRepository) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM pipeline_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.toRun(), nil
}

// Recent lists the latest runs of a kind, newest first
func (r *PostgresRunRepository) Recent(ctx context.Context, kind Kind, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE kind = $1 ORDER BY started_at DESC LIMIT $2`,
		string(kind), limit)
	if err != nil {
		return nil, err
	}

	runs := make([]*Run, len(rows))
	for i, row := range rows {
		runs[i] = row.toRun()
	}
	return runs, nil
}

// MemoryRunRepository keeps runs in process memory.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]Run
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[uuid.UUID]Run)}
}

func (m *MemoryRunRepository) Create(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	m.runs[run.ID] = copyRun(run)
	return nil
}

func (m *MemoryRunRepository) Update(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	m.runs[run.ID] = copyRun(run)
	return nil
}

func (m *MemoryRunRepository) Get(_ context.Context, id uuid.UUID) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	cp := copyRun(&run)
	return &cp, nil
}

func (m *MemoryRunRepository) Recent(_ context.Context, kind Kind, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Run
	for _, run := range m.runs {
		if run.Kind == kind {
			cp := copyRun(&run)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyRun(run *Run) Run {
	cp := *run
	cp.FailedProductIDs = append([]int64{}, run.FailedProductIDs...)
	if run.CompletedAt != nil {
		t := *run.CompletedAt
		cp.CompletedAt = &t
	}
	return cp
}

var (
	_ RunRepository = (*PostgresRunRepository)(nil)
	_ RunRepository = (*MemoryRunRepository)(nil)
)
