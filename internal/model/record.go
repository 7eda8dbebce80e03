package model

import "time"

// FieldScores maps each scored field to a confidence in [0,1].
type FieldScores map[Field]float64

// ProvenanceTag records which arbitration branch supplied a field's value.
type ProvenanceTag string

const (
	ProvenanceDOM            ProvenanceTag = "dom"
	ProvenanceVision         ProvenanceTag = "vision"
	ProvenanceDOMFallback    ProvenanceTag = "dom-fallback"
	ProvenanceVisionFallback ProvenanceTag = "vision-fallback"
	ProvenanceNone           ProvenanceTag = "none"
)

// Provenance maps each field to the source that won arbitration for it.
type Provenance map[Field]ProvenanceTag

// MergedFields holds the reconciled field values. Every field has a known
// type; there is no loosely typed merge map anywhere in the engine.
type MergedFields struct {
	Name            string      `json:"name,omitempty"`
	Description     string      `json:"description,omitempty"`
	Identifier      string      `json:"identifier,omitempty"`
	UnitPrice       float64     `json:"unitPrice,omitempty"`
	UnitPriceRaw    string      `json:"unitPriceRaw,omitempty"`
	TieredPrices    []TierEntry `json:"tieredPrices,omitempty"`
	TieredPriceText string      `json:"tieredPriceText,omitempty"`
}

// ReconciledRecord is the engine's output for one catalog item: merged
// values plus full provenance and diagnostics. Records are created once by
// the orchestrator and never mutated afterwards.
type ReconciledRecord struct {
	RunID      string        `json:"run_id,omitempty"`
	Ref        ItemRef       `json:"ref"`
	Fields     MergedFields  `json:"fields"`
	Confidence FieldScores   `json:"confidence"`
	Overall    float64       `json:"overall_confidence"`
	Provenance Provenance    `json:"provenance"`
	Success    bool          `json:"success"`
	Errors     []string      `json:"errors,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ItemRef identifies one catalog item to process. Dir is the capture
// directory the collaborator reads the DOM observation and region crops from.
type ItemRef struct {
	ID  string `json:"id" yaml:"id"`
	Dir string `json:"dir" yaml:"dir"`
}

// FailedItem records an item that could not be processed at all, as opposed
// to one that reconciled with errors. Downstream remediation differs: failed
// items are retried, low-confidence records go to manual review.
type FailedItem struct {
	Ref          ItemRef `json:"ref"`
	ErrorMessage string  `json:"error"`
}

// BatchReport aggregates one batch run.
type BatchReport struct {
	RunID          string             `json:"run_id"`
	ProcessedCount int                `json:"processed_count"`
	FailedCount    int                `json:"failed_count"`
	SuccessRate    float64            `json:"success_rate"`
	Records        []ReconciledRecord `json:"records"`
	Failures       []FailedItem       `json:"failures,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}
