package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoeborg/krona/internal/match"
	"github.com/Sjoeborg/krona/internal/model"
)

func newTestMapper() *Mapper {
	return New(match.NewEvaluator(match.DefaultConfig()))
}

func TestAddMappingAndResolve(t *testing.T) {
	m := newTestMapper()
	m.AddMapping("EVOLUTION GAMING", []string{"EVO", "EVOLUTION"}, "SE0012673267")

	assert.Equal(t, "EVOLUTION GAMING", m.Resolve("EVO", ""))
	assert.Equal(t, "EVOLUTION GAMING", m.Resolve("EVOLUTION", ""))
	assert.Equal(t, "EVOLUTION GAMING", m.Resolve("EVOLUTION GAMING", ""))

	// ISIN overrides for symbols the alias table does not know.
	assert.Equal(t, "EVOLUTION GAMING", m.Resolve("SOMETHING ELSE", "SE0012673267"))
}

func TestSeedGroupsKeepsEveryISIN(t *testing.T) {
	m := newTestMapper()
	m.AddMapping("KINNEVIK B", []string{"KINNEVIK"}, "SE0000164600")
	m.AddMapping("KINNEVIK B", nil, "SE0008373898")

	// Reload the persisted groups into a fresh mapper, as a new run does.
	reloaded := newTestMapper()
	reloaded.SeedGroups(m.Groups())

	assert.Equal(t, "KINNEVIK B", reloaded.Resolve("KINNEVIK", ""))
	assert.Equal(t, "KINNEVIK B", reloaded.Resolve("UNRELATED LABEL", "SE0000164600"))
	assert.Equal(t, "KINNEVIK B", reloaded.Resolve("UNRELATED LABEL", "SE0008373898"))

	group := reloaded.Groups()["KINNEVIK B"]
	require.NotNil(t, group)
	assert.ElementsMatch(t, []string{"SE0000164600", "SE0008373898"}, group.ISINs)
}

func TestResolveUnknownSymbolIsItself(t *testing.T) {
	m := newTestMapper()
	assert.Equal(t, "VOLVO B", m.Resolve("VOLVO B", ""))
}

func TestAddMappingIdempotent(t *testing.T) {
	m := newTestMapper()
	m.AddMapping("EVOLUTION GAMING", []string{"EVO"}, "SE0012673267")
	m.AddMapping("EVOLUTION GAMING", []string{"EVO"}, "SE0012673267")

	group := m.Groups()["EVOLUTION GAMING"]
	require.NotNil(t, group)
	assert.Equal(t, []string{"EVO"}, group.Synonyms)
	assert.Equal(t, []string{"SE0012673267"}, group.ISINs)
}

func TestAddMappingConflictingCanonicalKeepsFirst(t *testing.T) {
	m := newTestMapper()
	m.AddMapping("EVOLUTION GAMING", []string{"EVO"}, "")
	m.AddMapping("EVOLUTION AB", []string{"EVO"}, "")

	assert.Equal(t, "EVOLUTION GAMING", m.Resolve("EVO", ""))
	assert.False(t, m.Groups()["EVOLUTION AB"].HasSynonym("EVO"))
}

func TestFollowChain(t *testing.T) {
	m := newTestMapper()
	m.symbolMappings["a"] = "b"
	m.symbolMappings["b"] = "c"

	assert.Equal(t, "c", m.Resolve("a", ""))
}

func TestFollowChainCircular(t *testing.T) {
	m := newTestMapper()
	m.symbolMappings["a"] = "b"
	m.symbolMappings["b"] = "a"

	// Terminates with a bounded walk instead of hanging.
	resolved := m.Resolve("a", "")
	assert.Contains(t, []string{"a", "b"}, resolved)
}

func TestMatchToKnown(t *testing.T) {
	m := newTestMapper()
	known := map[string]*model.Position{
		"EVOLUTION GAMING": {Symbol: "EVOLUTION GAMING", ISIN: "SE0012673267"},
		"VOLVO B":          {Symbol: "VOLVO B", ISIN: "SE0000115446"},
	}

	t.Run("exact", func(t *testing.T) {
		assert.Equal(t, "EVOLUTION GAMING", m.MatchToKnown("EVOLUTION GAMING", known, ""))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, "EVOLUTION GAMING", m.MatchToKnown("Evolution Gaming", known, ""))
	})

	t.Run("fuzzy", func(t *testing.T) {
		assert.Equal(t, "EVOLUTION GAMING", m.MatchToKnown("EVOLUTION", known, ""))
	})

	t.Run("position ISIN fallback", func(t *testing.T) {
		assert.Equal(t, "VOLVO B", m.MatchToKnown("COMPLETELY DIFFERENT", known, "SE0000115446"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Equal(t, "", m.MatchToKnown("ERICSSON B", known, "SE0000108656"))
	})

	t.Run("alias table", func(t *testing.T) {
		m := newTestMapper()
		m.AddMapping("EVOLUTION GAMING", []string{"XYZ"}, "")
		assert.Equal(t, "EVOLUTION GAMING", m.MatchToKnown("XYZ", known, ""))
	})
}

func TestAcceptPlan(t *testing.T) {
	m := newTestMapper()
	plan := &model.MappingPlan{
		SymbolMappings: map[string]string{
			"EVO":       "EVOLUTION GAMING",
			"EVOLUTION": "EVOLUTION GAMING",
		},
		ISINMappings: map[string]string{
			"SE0012673267": "EVOLUTION GAMING",
		},
	}

	m.AcceptPlan(plan)

	assert.Equal(t, "EVOLUTION GAMING", m.Resolve("EVO", ""))
	assert.Equal(t, "EVOLUTION GAMING", m.Resolve("EVOLUTION", ""))
	assert.Equal(t, "EVOLUTION GAMING", m.Resolve("ANYTHING", "SE0012673267"))
	assert.True(t, m.IsMapped("EVO"))
}

func TestAcceptPlanConsolidatesTransitiveLinks(t *testing.T) {
	m := newTestMapper()
	plan := &model.MappingPlan{
		SymbolMappings: map[string]string{
			"a": "b",
			"b": "Canonical Name",
		},
		ISINMappings: map[string]string{},
	}

	m.AcceptPlan(plan)

	groups := m.Groups()
	require.Len(t, groups, 1)
	group, ok := groups["Canonical Name"]
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"a", "b"}, group.Synonyms)
	assert.Equal(t, "Canonical Name", m.Resolve("a", ""))
}

func TestChooseCanonical(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{
			name:       "longest wins",
			candidates: []string{"EVO", "EVOLUTION GAMING"},
			want:       "EVOLUTION GAMING",
		},
		{
			name:       "more lowercase wins on equal length",
			candidates: []string{"ABCDEF", "Abcdef"},
			want:       "Abcdef",
		},
		{
			name:       "lexicographic tie-break",
			candidates: []string{"aaaaaa", "bbbbbb"},
			want:       "bbbbbb",
		},
		{
			name:       "single candidate",
			candidates: []string{"VOLVO"},
			want:       "VOLVO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseCanonical(tt.candidates))
		})
	}
}

func TestConsolidateAttachesISINs(t *testing.T) {
	groups := consolidate(
		map[string]string{"OLD NAME": "NEW LONGER NAME"},
		map[string]string{"SE0000000001": "NEW LONGER NAME", "SE0000000002": "NEW LONGER NAME"},
	)

	require.Len(t, groups, 1)
	group := groups["NEW LONGER NAME"]
	require.NotNil(t, group)
	assert.Equal(t, []string{"OLD NAME"}, group.Synonyms)
	assert.Equal(t, []string{"SE0000000001", "SE0000000002"}, group.ISINs)
}
