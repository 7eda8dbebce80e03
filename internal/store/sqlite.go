package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	item_id    TEXT NOT NULL,
	identifier TEXT,
	name       TEXT,
	success    INTEGER NOT NULL,
	record     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS batch_runs (
	id           TEXT PRIMARY KEY,
	processed    INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	success_rate REAL NOT NULL,
	report       TEXT NOT NULL,
	started_at   DATETIME NOT NULL,
	finished_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id);
CREATE INDEX IF NOT EXISTS idx_records_identifier ON records(identifier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, rec model.ReconciledRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, run_id, item_id, identifier, name, success, record, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), rec.RunID, rec.Ref.ID,
		rec.Fields.Identifier, rec.Fields.Name, rec.Success,
		string(payload), rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert record for item %s", rec.Ref.ID)
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.BatchReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batch_runs (id, processed, failed, success_rate, report, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.ProcessedCount, report.FailedCount, report.SuccessRate,
		string(payload), report.StartedAt.UTC(), report.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert batch run %s", report.RunID)
}

func (s *SQLiteStore) ListRecords(ctx context.Context, runID string) ([]model.ReconciledRecord, error) {
	query := `SELECT record FROM records ORDER BY created_at, item_id`
	args := []any{}
	if runID != "" {
		query = `SELECT record FROM records WHERE run_id = ? ORDER BY created_at, item_id`
		args = append(args, runID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query records")
	}
	defer rows.Close()

	var out []model.ReconciledRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		var rec model.ReconciledRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}
