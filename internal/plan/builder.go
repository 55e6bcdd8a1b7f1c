// Package plan builds mapping plans: a batch pre-pass over the full
// transaction set that groups symbols by ISIN, scores candidate merges,
// and detects conflicts before any position exists.
package plan

import (
	"fmt"
	"sort"

	"github.com/Sjoeborg/krona/internal/mapper"
	"github.com/Sjoeborg/krona/internal/match"
	"github.com/Sjoeborg/krona/internal/model"
)

// Builder produces a MappingPlan from a full transaction set. It cannot
// stream: suggestion quality depends on seeing every symbol/ISIN pair.
type Builder struct {
	mapper    *mapper.Mapper
	evaluator *match.Evaluator
}

// NewBuilder creates a plan builder backed by the given mapper and
// similarity evaluator.
func NewBuilder(m *mapper.Mapper, evaluator *match.Evaluator) *Builder {
	return &Builder{mapper: m, evaluator: evaluator}
}

// Build analyzes all transactions and returns a plan whose resolved
// mappings come from the mapper's existing tables and whose suggestions
// are ordered by descending confidence (ties kept in discovery order).
func (b *Builder) Build(transactions []model.Transaction) *model.MappingPlan {
	p := model.NewMappingPlan()

	// Seed resolved mappings from previously accepted identities.
	for canonical, group := range b.mapper.Groups() {
		for _, synonym := range group.Synonyms {
			p.SymbolMappings[synonym] = canonical
		}
		for _, isin := range group.ISINs {
			p.ISINMappings[isin] = canonical
		}
	}

	symbolToISINs, isinToSymbols := groupByIdentity(transactions)

	suggestions := b.sharedISINSuggestions(isinToSymbols)
	suggestions = append(suggestions, b.corporateActionSuggestions(symbolToISINs, transactions)...)

	// Contract: higher-confidence suggestions precede lower-confidence
	// ones so auto-accept behaves deterministically.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	p.Suggestions = suggestions

	ResolveConflicts(p)
	return p
}

// groupByIdentity indexes observed symbols by shared ISIN and vice
// versa. Transactions without both fields are skipped.
func groupByIdentity(transactions []model.Transaction) (map[string][]string, map[string][]string) {
	symbolToISINs := make(map[string][]string)
	isinToSymbols := make(map[string][]string)
	seen := make(map[string]struct{})

	for _, t := range transactions {
		if t.Symbol == "" || t.ISIN == "" {
			continue
		}
		key := t.Symbol + "\x00" + t.ISIN
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		symbolToISINs[t.Symbol] = append(symbolToISINs[t.Symbol], t.ISIN)
		isinToSymbols[t.ISIN] = append(isinToSymbols[t.ISIN], t.Symbol)
	}
	return symbolToISINs, isinToSymbols
}

// sharedISINSuggestions pairs every two unmapped symbols that share an
// ISIN and emits a suggestion when the evaluator matches them at the
// "same security" tier.
func (b *Builder) sharedISINSuggestions(isinToSymbols map[string][]string) []*model.Suggestion {
	var suggestions []*model.Suggestion

	isins := sortedKeys(isinToSymbols)
	for _, isin := range isins {
		symbols := isinToSymbols[isin]
		if len(symbols) < 2 {
			continue
		}
		sort.Strings(symbols)
		for i, source := range symbols {
			for _, target := range symbols[i+1:] {
				if b.mapper.IsMapped(source) || b.mapper.IsMapped(target) {
					continue
				}
				if !b.evaluator.Match(source, target) {
					continue
				}
				score := b.evaluator.Score(source, target)
				suggestions = append(suggestions, &model.Suggestion{
					SourceSymbol:  source,
					TargetSymbol:  target,
					SourceISIN:    isin,
					TargetISIN:    isin,
					Confidence:    score,
					HasConfidence: true,
					Rationale:     fmt.Sprintf("Fuzzy match (%.0f%%): %q and %q share ISIN %s", score*100, source, target, isin),
					Status:        model.StatusPending,
				})
			}
		}
	}
	return suggestions
}

// corporateActionSuggestions pairs symbols carrying different ISINs and
// emits a suggestion at the stricter "corporate action" tier. The
// rationale names the earliest transaction date seen against the target
// ISIN, approximating the corporate-action date.
func (b *Builder) corporateActionSuggestions(symbolToISINs map[string][]string, transactions []model.Transaction) []*model.Suggestion {
	var suggestions []*model.Suggestion

	symbols := sortedKeys(symbolToISINs)
	for i, source := range symbols {
		for _, target := range symbols[i+1:] {
			if b.mapper.IsMapped(source) || b.mapper.IsMapped(target) {
				continue
			}
			sourceISIN := firstISIN(symbolToISINs[source])
			targetISIN := firstISIN(symbolToISINs[target])
			if sourceISIN == "" || targetISIN == "" || sourceISIN == targetISIN {
				continue
			}
			if !b.evaluator.MatchCorporateAction(source, target) {
				continue
			}
			suggestions = append(suggestions, &model.Suggestion{
				SourceSymbol:  source,
				TargetSymbol:  target,
				SourceISIN:    sourceISIN,
				TargetISIN:    targetISIN,
				Confidence:    b.evaluator.Score(source, target),
				HasConfidence: true,
				Rationale:     corporateActionRationale(targetISIN, transactions),
				Status:        model.StatusPending,
			})
		}
	}
	return suggestions
}

// corporateActionRationale describes an ISIN change, dated by the
// earliest transaction against the target ISIN when one exists.
func corporateActionRationale(targetISIN string, transactions []model.Transaction) string {
	var earliest *model.Transaction
	for i := range transactions {
		t := &transactions[i]
		if t.ISIN != targetISIN {
			continue
		}
		if earliest == nil || t.Date.Before(earliest.Date) {
			earliest = t
		}
	}
	if earliest == nil {
		return "ISIN change"
	}
	return fmt.Sprintf("ISIN change on %s", earliest.Date.Format("2006-01-02"))
}

func firstISIN(isins []string) string {
	if len(isins) == 0 {
		return ""
	}
	sorted := append([]string(nil), isins...)
	sort.Strings(sorted)
	return sorted[0]
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
