package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

func testRecord(runID, itemID string) model.ReconciledRecord {
	return model.ReconciledRecord{
		RunID: runID,
		Ref:   model.ItemRef{ID: itemID, Dir: "/captures/" + itemID},
		Fields: model.MergedFields{
			Name:         "Kugelschreiber mit Gravur",
			Identifier:   itemID,
			UnitPrice:    19.61,
			UnitPriceRaw: "19.61",
		},
		Confidence: model.FieldScores{
			model.FieldName:       1.0,
			model.FieldIdentifier: 1.0,
			model.FieldUnitPrice:  1.0,
		},
		Overall: 0.85,
		Provenance: model.Provenance{
			model.FieldName:       model.ProvenanceDOM,
			model.FieldIdentifier: model.ProvenanceDOM,
			model.FieldUnitPrice:  model.ProvenanceVision,
		},
		Success:   true,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_SaveAndListRecords(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	want := testRecord("run-1", "4711")
	require.NoError(t, s.SaveRecord(ctx, want))

	got, err := s.ListRecords(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, want.Ref, got[0].Ref)
	assert.Equal(t, want.Fields, got[0].Fields)
	assert.Equal(t, want.Provenance, got[0].Provenance)
	assert.Equal(t, want.Confidence, got[0].Confidence)
	assert.True(t, got[0].Success)
}

func TestSQLite_ListRecordsFiltersByRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRecord(ctx, testRecord("run-1", "4711")))
	require.NoError(t, s.SaveRecord(ctx, testRecord("run-2", "4712")))

	got, err := s.ListRecords(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "4712", got[0].Ref.ID)

	all, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_SaveReport(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	report := &model.BatchReport{
		RunID:          "run-1",
		ProcessedCount: 9,
		FailedCount:    1,
		SuccessRate:    0.9,
		Failures: []model.FailedItem{
			{Ref: model.ItemRef{ID: "4715"}, ErrorMessage: "engine crashed"},
		},
		StartedAt:  time.Now().Add(-time.Minute).UTC(),
		FinishedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveReport(ctx, report))
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}
