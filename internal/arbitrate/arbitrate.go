// Package arbitrate picks the winning source for one field given both
// sources' validated confidence scores.
//
// DOM extraction is structurally exact when its selector matches, so a
// moderately high self-confidence is enough to trust it outright. The
// recognizer is never perfectly reliable even at its best, so it needs a
// higher validated bar before it is trusted without a DOM counterpart, and
// is otherwise only a fallback.
package arbitrate

import "github.com/artikelwerk/catalog-cli/internal/model"

// Default trust thresholds, tuned to Tesseract on the shop's page layout.
const (
	DefaultDOMTrust    = 0.8
	DefaultVisionTrust = 0.6
)

// Candidate describes one source's offer for a field.
type Candidate struct {
	Present    bool
	Confidence float64
}

// Arbitrator applies the ordered arbitration rule with configured thresholds.
type Arbitrator struct {
	domTrust    float64
	visionTrust float64
}

// New creates an Arbitrator. Non-positive thresholds fall back to defaults.
func New(domTrust, visionTrust float64) *Arbitrator {
	if domTrust <= 0 {
		domTrust = DefaultDOMTrust
	}
	if visionTrust <= 0 {
		visionTrust = DefaultVisionTrust
	}
	return &Arbitrator{domTrust: domTrust, visionTrust: visionTrust}
}

// Decide returns the provenance tag for one field. First matching rule wins:
//
//  1. DOM present and trusted outright.
//  2. Vision present and above its own trust bar.
//  3. DOM present and more confident than vision.
//  4. Vision present at all.
//  5. Neither source usable.
func (a *Arbitrator) Decide(dom, vision Candidate) model.ProvenanceTag {
	switch {
	case dom.Present && dom.Confidence >= a.domTrust:
		return model.ProvenanceDOM
	case vision.Present && vision.Confidence >= a.visionTrust:
		return model.ProvenanceVision
	case dom.Present && dom.Confidence > vision.Confidence:
		return model.ProvenanceDOMFallback
	case vision.Present:
		return model.ProvenanceVisionFallback
	default:
		return model.ProvenanceNone
	}
}

// Winner maps a provenance tag back to the source that supplied the value.
// ProvenanceNone yields an empty source.
func Winner(tag model.ProvenanceTag) model.Source {
	switch tag {
	case model.ProvenanceDOM, model.ProvenanceDOMFallback:
		return model.SourceDOM
	case model.ProvenanceVision, model.ProvenanceVisionFallback:
		return model.SourceVision
	default:
		return ""
	}
}
