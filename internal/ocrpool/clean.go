package ocrpool

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// artifactSubstitutions are systematic Tesseract misreads observed on the
// shop's screenshots with the German language model. The umlaut in "Stück"
// is read as "ii" often enough to be worth a fixed substitution.
var artifactSubstitutions = [...][2]string{
	{"Stiick", "Stück"},
	{"stiick", "stück"},
}

// cleanText strips OCR control noise and applies the known artifact
// substitutions. Generic normalization (whitespace collapsing, casing) is
// the auto-fixer's job, not this stage's.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\f", "\n")
	for _, sub := range artifactSubstitutions {
		s = strings.ReplaceAll(s, sub[0], sub[1])
	}
	return s
}

var identifierNoise = regexp.MustCompile(`[^0-9A-Za-z./-]`)

// cleanIdentifier keeps only characters that occur in article numbers.
// Tesseract decorates short numeric runs with stray punctuation.
func cleanIdentifier(s string) string {
	return strings.TrimSpace(identifierNoise.ReplaceAllString(s, ""))
}

var priceToken = regexp.MustCompile(`\d+(?:[.,]\d{1,2})?`)

// cleanPrice extracts the price token from the region text and provisionally
// inserts a decimal point when the recognizer dropped it: a bare digit run
// above 100 such as "2545" becomes "25.45". This improves the confidence the
// validator will later compute; the auto-fixer applies the same repair for
// values that arrive through other paths.
func cleanPrice(s string) string {
	token := priceToken.FindString(s)
	if token == "" {
		return strings.TrimSpace(s)
	}

	if !strings.ContainsAny(token, ".,") {
		if value, err := strconv.ParseFloat(token, 64); err == nil && value > 100 && len(token) > 2 {
			return token[:len(token)-2] + "." + token[len(token)-2:]
		}
	}
	return token
}

// tierLine matches one quantity break as it appears on the shop's tier
// table, e.g. "ab 10 Stück 23,99 €" or "10: 23,99".
var tierLine = regexp.MustCompile(`(?i)(?:ab\s+)?(\d+)\s*(?:Stück|Stk\.?)?\s*:?\s+(\d+(?:[.,]\d{1,2})?)`)

// parseTiers extracts quantity breaks from the recognized tier-table text.
// Lines that do not parse are skipped; the raw text is preserved on the
// observation either way.
func parseTiers(text string) []model.TierEntry {
	var tiers []model.TierEntry
	for _, line := range strings.Split(text, "\n") {
		m := tierLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil || qty <= 0 {
			continue
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
		if err != nil || price < 0 {
			continue
		}
		tiers = append(tiers, model.TierEntry{Quantity: qty, Price: price})
	}
	return tiers
}
