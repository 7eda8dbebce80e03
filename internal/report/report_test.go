package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

func sampleRecord() model.ReconciledRecord {
	return model.ReconciledRecord{
		RunID: "run-1",
		Ref:   model.ItemRef{ID: "4711"},
		Fields: model.MergedFields{
			Name:       "Kugelschreiber mit Gravur",
			Identifier: "4711",
			UnitPrice:  19.61,
		},
		Overall: 0.85,
		Provenance: model.Provenance{
			model.FieldName:         model.ProvenanceDOM,
			model.FieldIdentifier:   model.ProvenanceDOM,
			model.FieldUnitPrice:    model.ProvenanceVision,
			model.FieldDescription:  model.ProvenanceVisionFallback,
			model.FieldTieredPrices: model.ProvenanceNone,
		},
		Success: true,
	}
}

func TestRenderRecords(t *testing.T) {
	out := RenderRecords([]model.ReconciledRecord{sampleRecord()})

	assert.Contains(t, out, "4711")
	assert.Contains(t, out, "Kugelschreiber mit Gravur")
	assert.Contains(t, out, "19.61")
	assert.Contains(t, out, "0.85")
	assert.Contains(t, out, "DDVv-")
	assert.Contains(t, out, "yes")
}

func TestRenderRecords_UnresolvedPriceLeftBlank(t *testing.T) {
	rec := sampleRecord()
	rec.Fields.UnitPrice = 0
	rec.Provenance[model.FieldUnitPrice] = model.ProvenanceNone

	out := RenderRecords([]model.ReconciledRecord{rec})
	assert.NotContains(t, out, "0.00 ")
}

func TestRender_FullReport(t *testing.T) {
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	r := &model.BatchReport{
		RunID:          "run-1",
		ProcessedCount: 1,
		FailedCount:    1,
		SuccessRate:    0.5,
		Records:        []model.ReconciledRecord{sampleRecord()},
		Failures: []model.FailedItem{
			{Ref: model.ItemRef{ID: "4715"}, ErrorMessage: "engine crashed on item 4715"},
		},
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}

	out := Render(r)

	assert.Contains(t, out, "4715")
	assert.Contains(t, out, "engine crashed")
	assert.Contains(t, out, "run run-1: 1 reconciled, 1 failed, success rate 50.0%, took 3s")
}

func TestRender_EmptyRun(t *testing.T) {
	r := &model.BatchReport{RunID: "run-1"}

	out := Render(r)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "0 reconciled, 0 failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "kurz", truncate("kurz", 10))
	assert.Equal(t, "Kugelschr…", truncate("Kugelschreiber", 10))
}
