package model

// SymbolGroup collects every label and ISIN observed for one security
// under its canonical symbol.
type SymbolGroup struct {
	CanonicalSymbol string
	Synonyms        []string
	ISINs           []string
}

// HasSynonym reports whether the group already contains the synonym.
func (g *SymbolGroup) HasSynonym(symbol string) bool {
	for _, s := range g.Synonyms {
		if s == symbol {
			return true
		}
	}
	return false
}

// HasISIN reports whether the group already contains the ISIN.
func (g *SymbolGroup) HasISIN(isin string) bool {
	for _, i := range g.ISINs {
		if i == isin {
			return true
		}
	}
	return false
}

// MappingPlan is the unit of work handed to suggestion review. Entries
// in SymbolMappings and ISINMappings are resolved; only Suggestions are
// pending judgment. Suggestions are ordered highest confidence first.
type MappingPlan struct {
	SymbolMappings map[string]string // alias -> canonical
	ISINMappings   map[string]string // ISIN -> canonical
	Suggestions    []*Suggestion
}

// NewMappingPlan creates an empty plan.
func NewMappingPlan() *MappingPlan {
	return &MappingPlan{
		SymbolMappings: make(map[string]string),
		ISINMappings:   make(map[string]string),
	}
}

// AcceptedSuggestions returns the suggestions marked accepted.
func (p *MappingPlan) AcceptedSuggestions() []*Suggestion {
	return p.byStatus(StatusAccepted)
}

// DeclinedSuggestions returns the suggestions marked declined.
func (p *MappingPlan) DeclinedSuggestions() []*Suggestion {
	return p.byStatus(StatusDeclined)
}

// PendingSuggestions returns the suggestions still awaiting a decision.
func (p *MappingPlan) PendingSuggestions() []*Suggestion {
	return p.byStatus(StatusPending)
}

func (p *MappingPlan) byStatus(status SuggestionStatus) []*Suggestion {
	var out []*Suggestion
	for _, s := range p.Suggestions {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}
