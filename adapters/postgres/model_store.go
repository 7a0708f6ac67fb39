// Package postgres implements the model store port over a Postgres table,
// for collaborators that keep their model collection in a database rather
// than on disk. Documents are stored verbatim as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"opencm/domain/core"
	"opencm/ports"
)

// Open connects to Postgres and verifies the connection.
func Open(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

type modelStore struct {
	db *sqlx.DB
}

// NewModelStore creates a Postgres-backed model store.
func NewModelStore(db *sqlx.DB) ports.ModelStore {
	return &modelStore{db: db}
}

// EnsureSchema creates the models table if it does not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	query := `CREATE TABLE IF NOT EXISTS models (
		id         TEXT PRIMARY KEY,
		document   JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create models table: %w", err)
	}
	return nil
}

// List returns every stored document, ordered by id.
func (s *modelStore) List(ctx context.Context) ([]ports.RawModel, error) {
	query := `SELECT id, document FROM models ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var raws []ports.RawModel
	for rows.Next() {
		var id string
		var document []byte
		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		raws = append(raws, ports.RawModel{Origin: "postgres:" + id, Data: document})
	}
	return raws, rows.Err()
}

// Get returns one stored document by id.
func (s *modelStore) Get(ctx context.Context, id string) (ports.RawModel, error) {
	query := `SELECT document FROM models WHERE id = $1`

	var document []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RawModel{}, fmt.Errorf("%w: %s", core.ErrModelNotFound, id)
	}
	if err != nil {
		return ports.RawModel{}, fmt.Errorf("failed to get model %s: %w", id, err)
	}
	return ports.RawModel{Origin: "postgres:" + id, Data: document}, nil
}

// Put inserts or replaces a document.
func (s *modelStore) Put(ctx context.Context, id string, data []byte) error {
	query := `INSERT INTO models (id, document)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET document = $2, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, id, data); err != nil {
		return fmt.Errorf("failed to put model %s: %w", id, err)
	}
	return nil
}

// Delete removes a stored document.
func (s *modelStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", core.ErrModelNotFound, id)
	}
	return nil
}
