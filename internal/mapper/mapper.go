// Package mapper owns the canonical-identity tables that map broker
// symbol variants and ISINs onto one identity per security.
package mapper

import (
	"log/slog"
	"strings"

	"github.com/Sjoeborg/krona/internal/match"
	"github.com/Sjoeborg/krona/internal/model"
)

// maxChainDepth bounds alias-chain resolution. Chains longer than this
// indicate a circular mapping and are cut with a warning.
const maxChainDepth = 10

// Mapper answers "what is the canonical identity of this symbol/ISIN?"
// and accumulates new aliases as they are confirmed. It is not safe for
// concurrent mutation; a run owns it exclusively.
type Mapper struct {
	groups         map[string]*model.SymbolGroup
	symbolMappings map[string]string // alias -> canonical
	isinMappings   map[string]string // ISIN -> canonical
	evaluator      *match.Evaluator
}

// New creates an empty mapper using the given similarity evaluator for
// fuzzy fallbacks.
func New(evaluator *match.Evaluator) *Mapper {
	return &Mapper{
		groups:         make(map[string]*model.SymbolGroup),
		symbolMappings: make(map[string]string),
		isinMappings:   make(map[string]string),
		evaluator:      evaluator,
	}
}

// AddMapping idempotently registers each synonym and the optional ISIN
// against the canonical symbol. Existing entries accumulate; nothing is
// overwritten silently.
func (m *Mapper) AddMapping(canonical string, synonyms []string, isin string) {
	group, ok := m.groups[canonical]
	if !ok {
		group = &model.SymbolGroup{CanonicalSymbol: canonical}
		m.groups[canonical] = group
	}

	for _, synonym := range synonyms {
		if synonym == canonical || group.HasSynonym(synonym) {
			continue
		}
		if existing, ok := m.symbolMappings[synonym]; ok && existing != canonical {
			slog.Warn("Synonym already mapped to a different canonical symbol",
				"synonym", synonym,
				"existing", existing,
				"requested", canonical)
			continue
		}
		group.Synonyms = append(group.Synonyms, synonym)
		m.symbolMappings[synonym] = canonical
	}

	if isin != "" && !group.HasISIN(isin) {
		group.ISINs = append(group.ISINs, isin)
		m.isinMappings[isin] = canonical
	}
}

// SeedGroups loads previously persisted groups into the identity
// tables. Every synonym and every ISIN of a group is registered, not
// just the first; a group that went through a corporate-action merge
// carries several ISINs and all of them must keep resolving.
func (m *Mapper) SeedGroups(groups map[string]*model.SymbolGroup) {
	for canonical, group := range groups {
		m.AddMapping(canonical, group.Synonyms, "")
		for _, isin := range group.ISINs {
			m.AddMapping(canonical, nil, isin)
		}
	}
}

// Resolve returns the canonical identity for a symbol, following the
// alias table and then the ISIN table. An unknown symbol is its own
// canonical: a new identity, never an error.
func (m *Mapper) Resolve(symbol, isin string) string {
	resolved := m.followChain(symbol)

	if isin != "" {
		if byISIN, ok := m.isinMappings[isin]; ok && byISIN != resolved {
			resolved = byISIN
		}
	}
	return resolved
}

// followChain walks the alias table with a bounded iteration cap so a
// circular mapping stops with a warning instead of looping.
func (m *Mapper) followChain(symbol string) string {
	seen := make(map[string]struct{})
	for i := 0; i < maxChainDepth; i++ {
		next, ok := m.symbolMappings[symbol]
		if !ok {
			break
		}
		if _, cycle := seen[symbol]; cycle {
			slog.Warn("Circular mapping detected", "symbol", symbol)
			break
		}
		seen[symbol] = struct{}{}
		symbol = next
	}
	return symbol
}

// MatchToKnown matches a symbol against the set of known canonical
// symbols once positions already exist: exact, alias table, ISIN table,
// case-insensitive, fuzzy, and finally position-ISIN fallback. Returns
// "" when nothing clears any check; the caller then opens a new
// position.
func (m *Mapper) MatchToKnown(symbol string, known map[string]*model.Position, isin string) string {
	canonical := m.Resolve(symbol, isin)

	if _, ok := known[canonical]; ok {
		return canonical
	}

	for knownSymbol := range known {
		if strings.EqualFold(knownSymbol, canonical) {
			return knownSymbol
		}
	}

	for knownSymbol := range known {
		if m.evaluator.Match(canonical, knownSymbol) {
			return knownSymbol
		}
	}

	if isin != "" {
		for knownSymbol, position := range known {
			if position.ISIN == isin {
				return knownSymbol
			}
		}
	}

	return ""
}

// Canonical returns the canonical name a bare symbol maps to, or "" if
// it is unknown. Unlike Resolve it does not treat unknown symbols as
// their own identity.
func (m *Mapper) Canonical(symbol string) string {
	if canonical, ok := m.symbolMappings[symbol]; ok {
		return canonical
	}
	if _, ok := m.groups[symbol]; ok {
		return symbol
	}
	return ""
}

// Groups returns the symbol groups keyed by canonical symbol.
func (m *Mapper) Groups() map[string]*model.SymbolGroup {
	return m.groups
}

// SymbolMappings returns a copy of the alias table.
func (m *Mapper) SymbolMappings() map[string]string {
	out := make(map[string]string, len(m.symbolMappings))
	for k, v := range m.symbolMappings {
		out[k] = v
	}
	return out
}

// ISINMappings returns a copy of the ISIN table.
func (m *Mapper) ISINMappings() map[string]string {
	out := make(map[string]string, len(m.isinMappings))
	for k, v := range m.isinMappings {
		out[k] = v
	}
	return out
}

// IsMapped reports whether the symbol appears in the alias table.
func (m *Mapper) IsMapped(symbol string) bool {
	_, ok := m.symbolMappings[symbol]
	return ok
}

// AcceptPlan folds a reviewed mapping plan into the identity tables,
// consolidating transitively linked groups under one canonical symbol.
func (m *Mapper) AcceptPlan(plan *model.MappingPlan) {
	m.groups = consolidate(plan.SymbolMappings, plan.ISINMappings)

	m.symbolMappings = make(map[string]string)
	m.isinMappings = make(map[string]string)
	for canonical, group := range m.groups {
		for _, synonym := range group.Synonyms {
			m.symbolMappings[synonym] = canonical
		}
		for _, isin := range group.ISINs {
			m.isinMappings[isin] = canonical
		}
	}
}

// ChooseCanonical picks the surviving label among candidates: the
// longest, most mixed-case one, with the lexicographically largest as
// the final tie-break. Deterministic so circular mappings resolve the
// same way on every run.
func ChooseCanonical(candidates []string) string {
	best := ""
	for _, c := range candidates {
		if best == "" || rank(c) > rank(best) || (rank(c) == rank(best) && c > best) {
			best = c
		}
	}
	return best
}

func rank(s string) int {
	lower := 0
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			lower++
		}
	}
	return len(s)*1000 + lower
}
