// Package match implements fuzzy similarity scoring between security
// labels. It is pure and deterministic: the same pair of labels always
// yields the same verdict, which the mapping-plan builder relies on for
// reproducible suggestion ordering.
package match

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Config holds the cutoff (0-100) for each similarity metric. A pair of
// labels matches a tier when any metric clears its cutoff.
type Config struct {
	Ratio          int
	PartialRatio   int
	TokenSortRatio int
	TokenSetRatio  int

	// CorporateActionRatio is the stricter cutoff applied to every
	// metric when the two labels carry different ISINs, since merging
	// across ISINs is riskier.
	CorporateActionRatio int
}

// DefaultConfig returns the default metric cutoffs.
func DefaultConfig() Config {
	return Config{
		Ratio:                80,
		PartialRatio:         80,
		TokenSortRatio:       80,
		TokenSetRatio:        80,
		CorporateActionRatio: 90,
	}
}

// Evaluator compares two security labels under several string-distance
// metrics plus acronym and corporate-suffix heuristics.
type Evaluator struct {
	config Config
}

// NewEvaluator creates an evaluator with the given cutoffs.
func NewEvaluator(config Config) *Evaluator {
	return &Evaluator{config: config}
}

// noiseSuffixes are broker artifacts appended to a label after a
// corporate action. They carry no identity information.
var noiseSuffixes = []string{"_OLD", "_NEW", ".OLD/X"}

// stripNoise removes known broker noise tokens from a label.
func stripNoise(symbol string) string {
	for _, suffix := range noiseSuffixes {
		symbol = strings.ReplaceAll(symbol, suffix, "")
	}
	return strings.TrimSpace(symbol)
}

// Score returns the plain character-ratio similarity of two labels in
// [0,1]. It is used as the confidence of fuzzy-derived suggestions.
func (e *Evaluator) Score(a, b string) float64 {
	return float64(fuzzy.Ratio(strings.ToLower(stripNoise(a)), strings.ToLower(stripNoise(b)))) / 100
}

// Match reports whether two labels plausibly name the same security.
// This is the lower-sensitivity tier used when the labels already share
// an ISIN.
func (e *Evaluator) Match(a, b string) bool {
	return e.match(a, b, e.config.Ratio, e.config.PartialRatio, e.config.TokenSortRatio, e.config.TokenSetRatio)
}

// MatchCorporateAction reports whether two labels with different ISINs
// plausibly name the same security across a corporate action. Every
// metric uses the stricter cutoff.
func (e *Evaluator) MatchCorporateAction(a, b string) bool {
	c := e.config.CorporateActionRatio
	return e.match(a, b, c, c, c, c)
}

func (e *Evaluator) match(a, b string, ratio, partial, tokenSort, tokenSet int) bool {
	s1 := strings.ToLower(stripNoise(a))
	s2 := strings.ToLower(stripNoise(b))

	if s1 == s2 {
		return true
	}

	if fuzzy.Ratio(s1, s2) >= ratio ||
		fuzzy.PartialRatio(s1, s2) >= partial ||
		fuzzy.TokenSortRatio(s1, s2) >= tokenSort ||
		fuzzy.TokenSetRatio(s1, s2) >= tokenSet {
		return true
	}

	// Short tickers are often acronyms of the full company name, e.g.
	// "SEB" for "SKANDINAVISKA ENSKILDA BANKEN".
	if len(s1) <= 4 && len(s2) > 4 {
		return isAcronym(s1, s2)
	}
	if len(s2) <= 4 && len(s1) > 4 {
		return isAcronym(s2, s1)
	}
	return false
}

// boilerplateTokens are corporate words commonly omitted when a name is
// abbreviated to a ticker.
var boilerplateTokens = map[string]struct{}{
	"AB":            {},
	"AKTIEBOLAG":    {},
	"GAMING":        {},
	"GROUP":         {},
	"GR":            {},
	"HOLDING":       {},
	"HLD":           {},
	"INTERNATIONAL": {},
	"INT":           {},
	"CORPORATION":   {},
	"CORP":          {},
}

// isAcronym checks whether short equals the initials of long's words
// after boilerplate tokens are removed.
func isAcronym(short, long string) bool {
	var words []string
	for _, w := range strings.Fields(strings.ToUpper(long)) {
		if _, ok := boilerplateTokens[w]; !ok {
			words = append(words, w)
		}
	}

	if len(words) < len(short) {
		return false
	}

	var b strings.Builder
	for _, w := range words[:len(short)] {
		b.WriteByte(w[0])
	}
	return b.String() == strings.ToUpper(short)
}
