// Package review turns a mapping plan's suggestions into final
// accept/decline decisions and folds the accepted merges back into the
// plan.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sjoeborg/krona/internal/model"
	"github.com/Sjoeborg/krona/internal/plan"
	"github.com/Sjoeborg/krona/internal/service"
)

// DefaultAutoAcceptThreshold marks suggestions at or above this
// confidence as accepted before review; the decider only needs to
// override them.
const DefaultAutoAcceptThreshold = 0.9

// Workflow drives suggestion review for one mapping plan.
type Workflow struct {
	decider    service.Decider
	autoAccept float64
	declined   map[string]struct{} // remembered declined rationales
	accepted   map[string]struct{}
}

// New creates a review workflow. prior carries decisions from earlier
// runs so a declined suggestion is not asked again.
func New(decider service.Decider, autoAccept float64, prior service.Decisions) *Workflow {
	w := &Workflow{
		decider:    decider,
		autoAccept: autoAccept,
		declined:   make(map[string]struct{}),
		accepted:   make(map[string]struct{}),
	}
	for _, rationale := range prior.Declined {
		w.declined[rationale] = struct{}{}
	}
	for _, rationale := range prior.Accepted {
		w.accepted[rationale] = struct{}{}
	}
	return w
}

// Run reviews every pending suggestion in the plan, applies accepted
// merges to the plan's mapping tables, re-runs conflict detection, and
// returns the updated decision lists for persistence.
func (w *Workflow) Run(ctx context.Context, p *model.MappingPlan) (service.Decisions, error) {
	w.suppressRemembered(p)

	high, low := w.partition(p.PendingSuggestions())

	for _, s := range high {
		s.Status = model.StatusAccepted
	}
	if len(high) > 0 {
		manual, err := w.decider.Review(ctx, high, true)
		if err != nil {
			return service.Decisions{}, fmt.Errorf("failed to review high-confidence suggestions: %w", err)
		}
		applyManual(p, manual)
	}

	if len(low) > 0 {
		manual, err := w.decider.Review(ctx, low, false)
		if err != nil {
			return service.Decisions{}, fmt.Errorf("failed to review low-confidence suggestions: %w", err)
		}
		applyManual(p, manual)
	}

	w.finish(p)
	return w.decisions(), nil
}

// suppressRemembered declines, without asking, any suggestion whose
// rationale was declined in a previous run.
func (w *Workflow) suppressRemembered(p *model.MappingPlan) {
	for _, s := range p.PendingSuggestions() {
		if _, declined := w.declined[s.Rationale]; declined {
			s.Status = model.StatusDeclined
			slog.Debug("Suppressing previously declined suggestion",
				"source", s.SourceSymbol,
				"target", s.TargetSymbol,
				"rationale", s.Rationale)
		}
	}
}

// partition splits pending suggestions at the auto-accept threshold.
// Suggestions without a confidence score always require explicit review.
func (w *Workflow) partition(pending []*model.Suggestion) (high, low []*model.Suggestion) {
	for _, s := range pending {
		if s.HasConfidence && s.Confidence >= w.autoAccept {
			high = append(high, s)
		} else {
			low = append(low, s)
		}
	}
	return high, low
}

// applyManual adds mappings entered outside the suggestion list.
func applyManual(p *model.MappingPlan, manual []service.ManualMapping) {
	for _, m := range manual {
		if m.Source == "" || m.Target == "" || m.Source == m.Target {
			continue
		}
		p.SymbolMappings[m.Source] = m.Target
		slog.Info("Added manual mapping", "source", m.Source, "target", m.Target)
	}
}

// finish folds every accepted suggestion into the plan's mapping tables
// and re-runs conflict detection over the result.
func (w *Workflow) finish(p *model.MappingPlan) {
	for _, s := range p.Suggestions {
		switch s.Status {
		case model.StatusAccepted:
			canonical := s.TargetSymbol
			p.SymbolMappings[s.SourceSymbol] = canonical
			if s.SourceISIN != "" {
				p.ISINMappings[s.SourceISIN] = canonical
			}
			if s.TargetISIN != "" {
				p.ISINMappings[s.TargetISIN] = canonical
			}
			w.accepted[s.Rationale] = struct{}{}
		case model.StatusDeclined:
			w.declined[s.Rationale] = struct{}{}
		case model.StatusPending:
			// Left undecided; it will come back next run.
		}
	}

	plan.ResolveConflicts(p)
}

func (w *Workflow) decisions() service.Decisions {
	return service.Decisions{
		Accepted: sortedSet(w.accepted),
		Declined: sortedSet(w.declined),
	}
}
