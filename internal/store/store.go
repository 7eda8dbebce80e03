// Package store persists reconciled records and batch reports. The engine
// itself is stateless; this is the persistence collaborator the batch
// runner hands its output to.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/artikelwerk/catalog-cli/internal/config"
	"github.com/artikelwerk/catalog-cli/internal/model"
)

// Store persists reconciliation output.
type Store interface {
	Migrate(ctx context.Context) error
	SaveRecord(ctx context.Context, rec model.ReconciledRecord) error
	SaveReport(ctx context.Context, report *model.BatchReport) error
	ListRecords(ctx context.Context, runID string) ([]model.ReconciledRecord, error)
	Close() error
}

// New creates a Store based on config.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
