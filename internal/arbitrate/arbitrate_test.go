package arbitrate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

func TestDecide_OrderedRules(t *testing.T) {
	a := New(0.8, 0.6)

	tests := []struct {
		name   string
		dom    Candidate
		vision Candidate
		want   model.ProvenanceTag
	}{
		{
			name:   "trusted DOM wins outright",
			dom:    Candidate{Present: true, Confidence: 1.0},
			vision: Candidate{Present: true, Confidence: 1.0},
			want:   model.ProvenanceDOM,
		},
		{
			name:   "DOM at exactly the threshold still wins",
			dom:    Candidate{Present: true, Confidence: 0.8},
			vision: Candidate{Present: true, Confidence: 1.0},
			want:   model.ProvenanceDOM,
		},
		{
			name:   "weak DOM yields to trusted vision",
			dom:    Candidate{Present: true, Confidence: 0.5},
			vision: Candidate{Present: true, Confidence: 0.9},
			want:   model.ProvenanceVision,
		},
		{
			name:   "vision at exactly its threshold is trusted",
			dom:    Candidate{},
			vision: Candidate{Present: true, Confidence: 0.6},
			want:   model.ProvenanceVision,
		},
		{
			name:   "both weak, DOM more confident",
			dom:    Candidate{Present: true, Confidence: 0.5},
			vision: Candidate{Present: true, Confidence: 0.4},
			want:   model.ProvenanceDOMFallback,
		},
		{
			name:   "both weak, vision at least as confident",
			dom:    Candidate{Present: true, Confidence: 0.4},
			vision: Candidate{Present: true, Confidence: 0.4},
			want:   model.ProvenanceVisionFallback,
		},
		{
			name:   "only weak vision available",
			dom:    Candidate{},
			vision: Candidate{Present: true, Confidence: 0.1},
			want:   model.ProvenanceVisionFallback,
		},
		{
			name:   "only weak DOM available",
			dom:    Candidate{Present: true, Confidence: 0.2},
			vision: Candidate{},
			want:   model.ProvenanceDOMFallback,
		},
		{
			name: "neither source usable",
			want: model.ProvenanceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Decide(tt.dom, tt.vision))
		})
	}
}

func TestNew_DefaultThresholds(t *testing.T) {
	a := New(0, 0)

	// 0.79 is below the default DOM trust bar of 0.8.
	got := a.Decide(
		Candidate{Present: true, Confidence: 0.79},
		Candidate{Present: true, Confidence: 0.9},
	)
	assert.Equal(t, model.ProvenanceVision, got)
}

func TestWinner(t *testing.T) {
	assert.Equal(t, model.SourceDOM, Winner(model.ProvenanceDOM))
	assert.Equal(t, model.SourceDOM, Winner(model.ProvenanceDOMFallback))
	assert.Equal(t, model.SourceVision, Winner(model.ProvenanceVision))
	assert.Equal(t, model.SourceVision, Winner(model.ProvenanceVisionFallback))
	assert.Equal(t, model.Source(""), Winner(model.ProvenanceNone))
}
