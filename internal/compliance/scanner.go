package compliance

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Scanner matches free text against each category's keyword set.
//
// Matching is literal, case-insensitive substring search: no stemming, no
// fuzzy matching, no negation handling. "not off-label" still matches
// "off-label" and "food for thought" still matches "food".
type Scanner struct {
	catalog *Catalog
}

// NewScanner creates a scanner over the catalog's keyword sets
func NewScanner(catalog *Catalog) *Scanner {
	return &Scanner{catalog: catalog}
}

// Scan records every matching keyword for every category, in catalog order.
// Nothing short-circuits.
func (s *Scanner) Scan(text string) TextScanResult {
	normalized := Normalize(text)
	result := TextScanResult{Matches: []CategoryMatch{}}
	if normalized == "" {
		return result
	}

	for _, p := range s.catalog.policies {
		var hits []string
		for _, kw := range p.Keywords {
			if strings.Contains(normalized, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > 0 {
			result.Matches = append(result.Matches, CategoryMatch{Category: p.Category, Keywords: hits})
		}
	}
	return result
}

// Normalize composes, lowercases and trims text. Punctuation is kept.
func Normalize(text string) string {
	// cases.Caser is stateful, so one is built per call.
	lower := cases.Lower(language.Und).String(norm.NFC.String(text))
	return strings.TrimSpace(lower)
}
