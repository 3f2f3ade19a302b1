package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists experiments in an embedded SQLite database. Counter
// updates run as single UPDATE statements, so increment-then-derive
// atomicity per (experiment, variant) row comes from SQLite itself; derived
// rates are recomputed from the counters on read.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    variants TEXT NOT NULL,
    start_date INTEGER,
    end_date INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_experiments_tenant ON experiments(tenant_id);
CREATE INDEX IF NOT EXISTS idx_experiments_status ON experiments(status);

CREATE TABLE IF NOT EXISTS variant_metrics (
    experiment_id TEXT NOT NULL,
    variant_id TEXT NOT NULL,
    variant_name TEXT NOT NULL,
    price REAL NOT NULL,
    views INTEGER NOT NULL DEFAULT 0,
    conversions INTEGER NOT NULL DEFAULT 0,
    revenue REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (experiment_id, variant_id),
    FOREIGN KEY (experiment_id) REFERENCES experiments(id)
);
`

// Open opens (creating if needed) the SQLite database at dbPath.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) CreateExperiment(ctx context.Context, exp *Experiment) error {
	variantsJSON, err := json.Marshal(exp.Variants)
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO experiments (id, tenant_id, name, description, status, variants, start_date, end_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.TenantID, exp.Name, exp.Description, string(exp.Status), string(variantsJSON),
		nullableTime(exp.StartDate), nullableTime(exp.EndDate), exp.CreatedAt.Unix(), exp.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert experiment: %w", err)
	}

	for _, v := range exp.Variants {
		if err := insertMetricsRow(ctx, tx, exp.ID, v); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetExperiment(ctx context.Context, id, tenantID string) (*Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, description, status, variants, start_date, end_date, created_at, updated_at
		 FROM experiments WHERE id = ?`, id)

	exp, err := scanExperiment(row)
	if err != nil {
		return nil, err
	}
	if tenantID != "" && exp.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return exp, nil
}

func (s *SQLiteStore) ListExperiments(ctx context.Context, tenantID string, filter ListFilter) ([]*Experiment, error) {
	query := `SELECT id, tenant_id, name, description, status, variants, start_date, end_date, created_at, updated_at
	          FROM experiments WHERE 1=1`
	var args []interface{}
	if tenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, tenantID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var out []*Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateExperiment(ctx context.Context, exp *Experiment) error {
	variantsJSON, err := json.Marshal(exp.Variants)
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE experiments SET name = ?, description = ?, status = ?, variants = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		exp.Name, exp.Description, string(exp.Status), string(variantsJSON),
		nullableTime(exp.StartDate), nullableTime(exp.EndDate), exp.UpdatedAt.Unix(),
		exp.ID, exp.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update experiment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	// Metrics rows for variants added while in draft.
	for _, v := range exp.Variants {
		if err := insertMetricsRow(ctx, tx, exp.ID, v); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeleteExperiment(ctx context.Context, id, tenantID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `DELETE FROM experiments WHERE id = ?`
	args := []interface{}{id}
	if tenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, tenantID)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM variant_metrics WHERE experiment_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete metrics: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) RecordView(ctx context.Context, experimentID, variantID string) error {
	// Unknown ids affect zero rows, which is the intended no-op.
	_, err := s.db.ExecContext(ctx,
		`UPDATE variant_metrics SET views = views + 1 WHERE experiment_id = ? AND variant_id = ?`,
		experimentID, variantID)
	if err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordConversion(ctx context.Context, experimentID, variantID string, revenue float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE variant_metrics SET conversions = conversions + 1, revenue = revenue + ?
		 WHERE experiment_id = ? AND variant_id = ?`,
		revenue, experimentID, variantID)
	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetResults(ctx context.Context, id, tenantID string) (*ExperimentResults, error) {
	if _, err := s.GetExperiment(ctx, id, tenantID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT variant_id, variant_name, price, views, conversions, revenue
		 FROM variant_metrics WHERE experiment_id = ? ORDER BY variant_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	variants := make(map[string]VariantMetrics)
	for rows.Next() {
		var m VariantMetrics
		if err := rows.Scan(&m.VariantID, &m.VariantName, &m.Price, &m.Views, &m.Conversions, &m.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan metrics: %w", err)
		}
		m.Recalculate()
		variants[m.VariantID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ExperimentResults{
		ExperimentID: id,
		Variants:     variants,
		Summary:      Summarize(variants),
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExperiment(row rowScanner) (*Experiment, error) {
	var exp Experiment
	var variantsJSON string
	var startDate, endDate sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&exp.ID, &exp.TenantID, &exp.Name, &exp.Description, &exp.Status,
		&variantsJSON, &startDate, &endDate, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan experiment: %w", err)
	}

	if err := json.Unmarshal([]byte(variantsJSON), &exp.Variants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variants: %w", err)
	}

	if startDate.Valid {
		t := time.Unix(startDate.Int64, 0)
		exp.StartDate = &t
	}
	if endDate.Valid {
		t := time.Unix(endDate.Int64, 0)
		exp.EndDate = &t
	}
	exp.CreatedAt = time.Unix(createdAt, 0)
	exp.UpdatedAt = time.Unix(updatedAt, 0)

	return &exp, nil
}

func insertMetricsRow(ctx context.Context, tx *sql.Tx, experimentID string, v Variant) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO variant_metrics (experiment_id, variant_id, variant_name, price)
		 VALUES (?, ?, ?, ?)`,
		experimentID, v.ID, v.Name, v.Price)
	if err != nil {
		return fmt.Errorf("failed to insert metrics row: %w", err)
	}
	return nil
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

var _ Store = (*SQLiteStore)(nil)
