package plan

import (
	"log/slog"

	"github.com/Sjoeborg/krona/internal/mapper"
	"github.com/Sjoeborg/krona/internal/model"
)

// ResolveConflicts scans the plan's resolved symbol mappings for
// circular pairs (A->B alongside B->A) and collapses each to a single
// direction. The surviving canonical is chosen deterministically, so
// repeated runs resolve the same way. Surfaced as a log line, never a
// failure.
func ResolveConflicts(p *model.MappingPlan) {
	processed := make(map[string]struct{})

	for source, target := range p.SymbolMappings {
		if _, done := processed[source]; done {
			continue
		}
		if p.SymbolMappings[target] != source {
			continue
		}

		canonical := mapper.ChooseCanonical([]string{source, target})
		synonym := source
		if synonym == canonical {
			synonym = target
		}

		p.SymbolMappings[synonym] = canonical
		if p.SymbolMappings[canonical] == synonym {
			delete(p.SymbolMappings, canonical)
		}

		slog.Info("Resolved circular mapping", "synonym", synonym, "canonical", canonical)

		processed[source] = struct{}{}
		processed[target] = struct{}{}
	}
}
