package modelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockcast/internal/repository/postgres"
)

// PostgresStore keeps artifacts in the demand_models table.
type PostgresStore struct {
	db *postgres.DB
}

func NewPostgresStore(db *postgres.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO demand_models (model_key, payload, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (model_key)
			DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
		`
		if _, err := tx.ExecContext(ctx, query, key, data); err != nil {
			return fmt.Errorf("failed to upsert model %s: %w", key, err)
		}
		return nil
	})
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM demand_models WHERE model_key = $1`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", key, err)
	}
	return data, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM demand_models WHERE model_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete model %s: %w", key, err)
	}
	return nil
}
