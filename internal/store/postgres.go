package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock implements it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; tests inject pgxmock here.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	item_id    TEXT NOT NULL,
	identifier TEXT,
	name       TEXT,
	success    BOOLEAN NOT NULL,
	record     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS batch_runs (
	id           TEXT PRIMARY KEY,
	processed    INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	success_rate DOUBLE PRECISION NOT NULL,
	report       JSONB NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id);
CREATE INDEX IF NOT EXISTS idx_records_identifier ON records(identifier);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, rec model.ReconciledRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (id, run_id, item_id, identifier, name, success, record, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(), rec.RunID, rec.Ref.ID,
		rec.Fields.Identifier, rec.Fields.Name, rec.Success,
		payload, rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert record for item %s", rec.Ref.ID)
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *model.BatchReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO batch_runs (id, processed, failed, success_rate, report, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.RunID, report.ProcessedCount, report.FailedCount, report.SuccessRate,
		payload, report.StartedAt.UTC(), report.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert batch run %s", report.RunID)
}

func (s *PostgresStore) ListRecords(ctx context.Context, runID string) ([]model.ReconciledRecord, error) {
	query := `SELECT record FROM records ORDER BY created_at, item_id`
	args := []any{}
	if runID != "" {
		query = `SELECT record FROM records WHERE run_id = $1 ORDER BY created_at, item_id`
		args = append(args, runID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query records")
	}
	defer rows.Close()

	var out []model.ReconciledRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var rec model.ReconciledRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}
