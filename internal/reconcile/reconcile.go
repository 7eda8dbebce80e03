// Package reconcile merges a DOM observation and a vision observation of
// the same catalog item into one record with per-field provenance.
//
// The ordering fix -> validate -> arbitrate is a hard constraint: fixes run
// first so every confidence score describes the corrected value, never the
// raw pre-fix text. Reconcile is pure; it touches no I/O and no engine.
package reconcile

import (
	"fmt"
	"time"

	"github.com/artikelwerk/catalog-cli/internal/arbitrate"
	"github.com/artikelwerk/catalog-cli/internal/autofix"
	"github.com/artikelwerk/catalog-cli/internal/model"
	"github.com/artikelwerk/catalog-cli/internal/validate"
)

// Options carries the tunable thresholds. Zero values select defaults.
type Options struct {
	DOMTrust               float64
	VisionTrust            float64
	DecimalRepairThreshold float64
}

// Reconciler merges observations into reconciled records.
type Reconciler struct {
	fixer *autofix.Fixer
	val   *validate.Validator
	arb   *arbitrate.Arbitrator
}

// New creates a Reconciler. The fixer and the validator share the decimal
// repair threshold so the validator warns against the same cutoff the fixer
// repairs.
func New(opts Options) *Reconciler {
	return &Reconciler{
		fixer: autofix.New(opts.DecimalRepairThreshold),
		val:   validate.New(opts.DecimalRepairThreshold),
		arb:   arbitrate.New(opts.DOMTrust, opts.VisionTrust),
	}
}

// Reconcile produces the canonical record for one item. dom may be nil when
// no selector matched at all; vision is always present, though possibly
// empty.
func (r *Reconciler) Reconcile(dom *model.Observation, vision model.Observation) model.ReconciledRecord {
	rec := model.ReconciledRecord{
		Confidence: make(model.FieldScores, len(model.Fields)),
		Provenance: make(model.Provenance, len(model.Fields)),
		CreatedAt:  time.Now().UTC(),
	}

	var fixedDom model.Observation
	hasDom := false
	if dom != nil {
		fixedDom = r.fixer.Fix(*dom)
		hasDom = !fixedDom.IsEmpty()
	}
	fixedVision := r.fixer.Fix(vision)
	hasVision := !fixedVision.IsEmpty()

	var domResult, visionResult *validate.Result
	if hasDom {
		res := r.val.Validate(fixedDom)
		domResult = &res
	}
	if hasVision {
		res := r.val.Validate(fixedVision)
		visionResult = &res
	}

	seenErr := make(map[string]bool)
	seenWarn := make(map[string]bool)
	addError := func(msg string) {
		if !seenErr[msg] {
			seenErr[msg] = true
			rec.Errors = append(rec.Errors, msg)
		}
	}
	addWarning := func(msg string) {
		if !seenWarn[msg] {
			seenWarn[msg] = true
			rec.Warnings = append(rec.Warnings, msg)
		}
	}

	for _, f := range model.Fields {
		domCand := candidate(fixedDom, domResult, f, hasDom)
		visionCand := candidate(fixedVision, visionResult, f, hasVision)

		tag := r.arb.Decide(domCand, visionCand)
		rec.Provenance[f] = tag

		switch arbitrate.Winner(tag) {
		case model.SourceDOM:
			copyField(&rec.Fields, fixedDom, f)
			rec.Confidence[f] = domCand.Confidence
		case model.SourceVision:
			copyField(&rec.Fields, fixedVision, f)
			rec.Confidence[f] = visionCand.Confidence
		default:
			rec.Confidence[f] = 0
			addWarning(fmt.Sprintf("no usable source for field %s", f))
		}

		// Diagnostics follow the arbitration outcome: issues from the
		// winning source keep their severity, errors from a losing source
		// are demoted to warnings since the field still resolved, and an
		// unresolved field keeps every error from both sources.
		winner := arbitrate.Winner(tag)
		for _, side := range []struct {
			source model.Source
			result *validate.Result
		}{
			{model.SourceDOM, domResult},
			{model.SourceVision, visionResult},
		} {
			if side.result == nil {
				continue
			}
			for _, issue := range side.result.FieldIssues(f) {
				switch {
				case issue.Severity == validate.SeverityWarning:
					addWarning(issue.Message)
				case winner == "" || side.source == winner:
					addError(issue.Message)
				default:
					addWarning(issue.Message)
				}
			}
		}
	}

	for f, w := range model.FieldWeights {
		rec.Overall += w * rec.Confidence[f]
	}
	rec.Success = rec.Provenance[model.FieldIdentifier] != model.ProvenanceNone &&
		rec.Provenance[model.FieldName] != model.ProvenanceNone

	return rec
}

func candidate(o model.Observation, res *validate.Result, f model.Field, present bool) arbitrate.Candidate {
	c := arbitrate.Candidate{}
	if !present || res == nil {
		return c
	}
	c.Present = o.Has(f)
	c.Confidence = res.Confidence[f]
	return c
}

// copyField moves the winning source's value for one field into the merged
// struct. The tiered-price free text travels with the tiered prices.
func copyField(m *model.MergedFields, o model.Observation, f model.Field) {
	switch f {
	case model.FieldName:
		m.Name = o.Name
	case model.FieldDescription:
		m.Description = o.Description
	case model.FieldIdentifier:
		m.Identifier = o.Identifier
	case model.FieldUnitPrice:
		m.UnitPriceRaw = o.UnitPrice
		if value, ok := validate.ParsePrice(o.UnitPrice); ok {
			m.UnitPrice = value
		}
	case model.FieldTieredPrices:
		m.TieredPrices = o.TieredPrices
		m.TieredPriceText = o.TieredPriceText
	}
}
