package model

import "strings"

// Field identifies one of the scored catalog fields.
type Field string

const (
	FieldName         Field = "name"
	FieldDescription  Field = "description"
	FieldIdentifier   Field = "identifier"
	FieldUnitPrice    Field = "unitPrice"
	FieldTieredPrices Field = "tieredPrices"
)

// Fields lists all scored fields in weight order.
var Fields = []Field{FieldName, FieldIdentifier, FieldUnitPrice, FieldDescription, FieldTieredPrices}

// FieldWeights is the fixed weighting used for the overall confidence score.
var FieldWeights = map[Field]float64{
	FieldName:         0.30,
	FieldIdentifier:   0.25,
	FieldUnitPrice:    0.25,
	FieldDescription:  0.10,
	FieldTieredPrices: 0.10,
}

// Source names the origin of an observation.
type Source string

const (
	SourceDOM    Source = "dom"
	SourceVision Source = "vision"
)

// TierEntry is one quantity break in a tiered price list.
// Canonical form is ascending by Quantity with unique quantities.
type TierEntry struct {
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Observation is one source's (possibly partial) view of a catalog item.
// An empty string or nil slice means the field was not captured: for DOM
// observations the selector did not match, for vision observations the
// recognizer found no text in that region. Observations are value objects;
// fixes return a new Observation rather than mutating in place.
type Observation struct {
	Source          Source      `json:"source"`
	Name            string      `json:"name,omitempty"`
	Description     string      `json:"description,omitempty"`
	Identifier      string      `json:"identifier,omitempty"`
	UnitPrice       string      `json:"unitPrice,omitempty"`
	TieredPrices    []TierEntry `json:"tieredPrices,omitempty"`
	TieredPriceText string      `json:"tieredPriceText,omitempty"`
}

// Has reports whether the given field carries a value.
func (o Observation) Has(f Field) bool {
	switch f {
	case FieldName:
		return o.Name != ""
	case FieldDescription:
		return o.Description != ""
	case FieldIdentifier:
		return o.Identifier != ""
	case FieldUnitPrice:
		return strings.TrimSpace(o.UnitPrice) != ""
	case FieldTieredPrices:
		// Free text alone counts: "Auf Anfrage" articles carry no parseable
		// tier entries but the text must survive reconciliation.
		return len(o.TieredPrices) > 0 || strings.TrimSpace(o.TieredPriceText) != ""
	default:
		return false
	}
}

// IsEmpty reports whether no field carries a value.
func (o Observation) IsEmpty() bool {
	for _, f := range Fields {
		if o.Has(f) {
			return false
		}
	}
	return true
}
