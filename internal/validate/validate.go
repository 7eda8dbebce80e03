// Package validate scores a single observation: per-field confidence in
// [0,1], blocking errors and non-blocking warnings, all produced in one
// pass. Validation never mutates the observation and never fails; callers
// run the auto-fixer first so the scores describe corrected values.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// Severity classifies an issue as blocking or informational.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding against one field.
type Issue struct {
	Field    model.Field `json:"field"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
}

// Result is the outcome of validating one observation.
type Result struct {
	Confidence model.FieldScores `json:"confidence"`
	Overall    float64           `json:"overall_confidence"`
	Valid      bool              `json:"valid"`
	Issues     []Issue           `json:"issues,omitempty"`
}

// Errors returns the messages of all blocking issues.
func (r Result) Errors() []string {
	return r.messages(SeverityError)
}

// Warnings returns the messages of all non-blocking issues.
func (r Result) Warnings() []string {
	return r.messages(SeverityWarning)
}

func (r Result) messages(sev Severity) []string {
	var out []string
	for _, is := range r.Issues {
		if is.Severity == sev {
			out = append(out, is.Message)
		}
	}
	return out
}

// FieldIssues returns the issues raised against one field.
func (r Result) FieldIssues(f model.Field) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Field == f {
			out = append(out, is)
		}
	}
	return out
}

const (
	shortNameLen        = 3
	nonAlnumRatioCap    = 0.3
	shortDescriptionLen = 5
	shortIdentifierLen  = 2
	// DefaultSuspectPriceValue: a separator-less price above this almost
	// always lost its decimal point during recognition.
	DefaultSuspectPriceValue = 100.0
)

// Validator scores observations. The suspect-price cutoff matches the
// auto-fixer's decimal repair threshold so the validator warns against the
// same boundary the fixer repairs.
type Validator struct {
	suspectPriceValue float64
}

// New creates a Validator. A non-positive cutoff falls back to the default.
func New(suspectPriceValue float64) *Validator {
	if suspectPriceValue <= 0 {
		suspectPriceValue = DefaultSuspectPriceValue
	}
	return &Validator{suspectPriceValue: suspectPriceValue}
}

// Validate scores an observation with the default thresholds.
func Validate(o model.Observation) Result {
	return New(0).Validate(o)
}

// Validate scores all fields of one observation in a single pass.
func (v *Validator) Validate(o model.Observation) Result {
	r := Result{Confidence: make(model.FieldScores, len(model.Fields))}

	r.Confidence[model.FieldName] = validateName(o, &r)
	r.Confidence[model.FieldDescription] = validateDescription(o, &r)
	r.Confidence[model.FieldIdentifier] = validateIdentifier(o, &r)
	r.Confidence[model.FieldUnitPrice] = v.validateUnitPrice(o, &r)
	r.Confidence[model.FieldTieredPrices] = validateTieredPrices(o, &r)

	for f, w := range model.FieldWeights {
		r.Overall += w * r.Confidence[f]
	}
	r.Valid = len(r.Errors()) == 0

	return r
}

func (r *Result) addError(f model.Field, msg string) {
	r.Issues = append(r.Issues, Issue{Field: f, Severity: SeverityError, Message: msg})
}

func (r *Result) addWarning(f model.Field, msg string) {
	r.Issues = append(r.Issues, Issue{Field: f, Severity: SeverityWarning, Message: msg})
}

func validateName(o model.Observation, r *Result) float64 {
	if !o.Has(model.FieldName) {
		r.addError(model.FieldName, "name missing")
		return 0
	}

	conf := 1.0
	if len([]rune(o.Name)) < shortNameLen {
		r.addWarning(model.FieldName, fmt.Sprintf("name %q too short", o.Name))
		conf = min(conf, 0.5)
	}
	if nonAlnumRatio(o.Name) > nonAlnumRatioCap {
		r.addWarning(model.FieldName, "name contains mostly non-alphanumeric characters")
		conf = min(conf, 0.6)
	}
	return conf
}

func validateDescription(o model.Observation, r *Result) float64 {
	if !o.Has(model.FieldDescription) {
		return 0 // optional field, no error
	}

	if isTruncated(o.Description) {
		r.addWarning(model.FieldDescription, "description appears truncated")
		return 0.5
	}
	if len([]rune(o.Description)) < shortDescriptionLen {
		r.addWarning(model.FieldDescription, "description too short")
		return 0.5
	}
	return 1.0
}

func validateIdentifier(o model.Observation, r *Result) float64 {
	if !o.Has(model.FieldIdentifier) {
		r.addError(model.FieldIdentifier, "identifier missing")
		return 0
	}

	if len([]rune(o.Identifier)) < shortIdentifierLen {
		r.addWarning(model.FieldIdentifier, fmt.Sprintf("identifier %q too short", o.Identifier))
		return 0.5
	}
	return 1.0
}

func (v *Validator) validateUnitPrice(o model.Observation, r *Result) float64 {
	if !o.Has(model.FieldUnitPrice) {
		return 0 // optional when tiered prices exist, no error
	}

	value, ok := ParsePrice(o.UnitPrice)
	if !ok {
		r.addError(model.FieldUnitPrice, fmt.Sprintf("unit price %q is not numeric", o.UnitPrice))
		return 0
	}
	if value <= 0 {
		r.addError(model.FieldUnitPrice, fmt.Sprintf("unit price %v is not positive", value))
		return 0
	}
	if !HasDecimalSeparator(o.UnitPrice) && value > v.suspectPriceValue {
		r.addWarning(model.FieldUnitPrice, "possible missing decimal point")
		return 0.6
	}
	return 1.0
}

func validateTieredPrices(o model.Observation, r *Result) float64 {
	if !o.Has(model.FieldTieredPrices) {
		return 0 // optional, no error
	}

	conf := 1.0
	seen := make(map[int]bool, len(o.TieredPrices))
	prevQty := 0
	sorted := true
	duplicates := false

	for _, t := range o.TieredPrices {
		if t.Quantity <= 0 {
			r.addError(model.FieldTieredPrices, fmt.Sprintf("tier quantity %d is not positive", t.Quantity))
			return 0
		}
		if t.Price < 0 {
			r.addError(model.FieldTieredPrices, fmt.Sprintf("tier price %v is negative", t.Price))
			return 0
		}
		if seen[t.Quantity] {
			duplicates = true
		}
		seen[t.Quantity] = true
		if t.Quantity <= prevQty && prevQty != 0 {
			sorted = false
		}
		prevQty = t.Quantity
	}

	if !sorted {
		r.addWarning(model.FieldTieredPrices, "tier entries not sorted by quantity")
		conf = min(conf, 0.6)
	}
	if duplicates {
		r.addWarning(model.FieldTieredPrices, "tier entries contain duplicate quantities")
		conf = min(conf, 0.6)
	}
	return conf
}

// ParsePrice parses a raw price string. It tolerates a comma decimal
// separator, surrounding whitespace, and a trailing currency sign, which is
// how prices come off both the DOM extractor and the recognizer.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// HasDecimalSeparator reports whether the raw price text contains a
// fractional separator (period or comma).
func HasDecimalSeparator(raw string) bool {
	return strings.ContainsAny(raw, ".,")
}

func isTruncated(s string) bool {
	for _, marker := range []string{"...", "…", "[...]"} {
		if strings.HasSuffix(strings.TrimSpace(s), marker) {
			return true
		}
	}
	return false
}

func nonAlnumRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	nonAlnum := 0
	for _, c := range runes {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && !unicode.IsSpace(c) {
			nonAlnum++
		}
	}
	return float64(nonAlnum) / float64(len(runes))
}
