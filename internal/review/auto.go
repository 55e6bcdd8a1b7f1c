package review

import (
	"context"
	"sort"

	"github.com/Sjoeborg/krona/internal/model"
	"github.com/Sjoeborg/krona/internal/service"
)

// AutoDecider is the non-interactive decision source: pre-accepted
// batches stay accepted, everything else is declined. Used for batch
// runs and tests.
type AutoDecider struct{}

// Review implements service.Decider.
func (AutoDecider) Review(_ context.Context, suggestions []*model.Suggestion, preAccepted bool) ([]service.ManualMapping, error) {
	if preAccepted {
		return nil, nil
	}
	for _, s := range suggestions {
		s.Status = model.StatusDeclined
	}
	return nil, nil
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
