// Package autofix applies deterministic normalization to an observation
// before validation. Fix is total and idempotent; it always returns a new
// observation and never touches the input.
package autofix

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// DefaultDecimalRepairThreshold is the separator-less price value above
// which a dropped decimal point is assumed.
const DefaultDecimalRepairThreshold = 100.0

// titleCaseMinLen: all-caps strings at or below this length are left alone
// so short acronyms (DIN, PVC) survive.
const titleCaseMinLen = 15

// Fixer holds the repair thresholds.
type Fixer struct {
	decimalRepairThreshold float64
}

// New creates a Fixer. A non-positive threshold falls back to the default.
func New(decimalRepairThreshold float64) *Fixer {
	if decimalRepairThreshold <= 0 {
		decimalRepairThreshold = DefaultDecimalRepairThreshold
	}
	return &Fixer{decimalRepairThreshold: decimalRepairThreshold}
}

// Fix returns a normalized copy of the observation.
func (fx *Fixer) Fix(o model.Observation) model.Observation {
	fixed := o
	fixed.Name = fixName(o.Name)
	fixed.Description = collapseWhitespace(o.Description)
	fixed.Identifier = strings.TrimSpace(o.Identifier)
	fixed.UnitPrice = fx.fixPrice(o.UnitPrice)
	fixed.TieredPrices = canonicalTiers(o.TieredPrices)
	fixed.TieredPriceText = collapseWhitespace(o.TieredPriceText)
	return fixed
}

// fixName collapses whitespace and repairs all-caps recognizer output.
// Only long all-caps runs are title-cased; legitimate short acronyms keep
// their casing.
func fixName(name string) string {
	name = collapseWhitespace(name)
	// cases.Caser carries transform state, so build one per call instead
	// of sharing across concurrently fixed items.
	if len([]rune(name)) > titleCaseMinLen && isAllUpper(name) {
		name = cases.Title(language.German).String(name)
	}
	return name
}

// fixPrice repairs a dropped decimal point (raw "2545" becomes "25.45")
// and normalizes a comma separator to a period. Already-normalized input
// passes through unchanged, which keeps the fix idempotent.
func (fx *Fixer) fixPrice(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if !strings.ContainsAny(s, ".,") {
		if value, err := strconv.ParseFloat(s, 64); err == nil && value > fx.decimalRepairThreshold {
			return fmt.Sprintf("%.2f", value/100)
		}
		return s
	}
	return strings.ReplaceAll(s, ",", ".")
}

// canonicalTiers sorts ascending by quantity and drops entries whose
// quantity repeats an earlier one, keeping the first occurrence.
func canonicalTiers(tiers []model.TierEntry) []model.TierEntry {
	if len(tiers) == 0 {
		return nil
	}

	out := make([]model.TierEntry, len(tiers))
	copy(out, tiers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })

	deduped := out[:0]
	seen := make(map[int]bool, len(out))
	for _, t := range out {
		if seen[t.Quantity] {
			continue
		}
		seen[t.Quantity] = true
		deduped = append(deduped, t)
	}
	return deduped
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, c := range s {
		if unicode.IsLetter(c) {
			hasLetter = true
			if !unicode.IsUpper(c) {
				return false
			}
		}
	}
	return hasLetter
}
