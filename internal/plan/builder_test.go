package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoeborg/krona/internal/mapper"
	"github.com/Sjoeborg/krona/internal/match"
	"github.com/Sjoeborg/krona/internal/model"
)

func newTestBuilder() *Builder {
	evaluator := match.NewEvaluator(match.DefaultConfig())
	return NewBuilder(mapper.New(evaluator), evaluator)
}

func txn(date, symbol, isin string) model.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return model.Transaction{
		Date:     d,
		Symbol:   symbol,
		ISIN:     isin,
		Type:     model.TypeBuy,
		Currency: "SEK",
		Quantity: 1,
		Price:    100,
	}
}

func TestBuildSharedISINSuggestion(t *testing.T) {
	b := newTestBuilder()

	p := b.Build([]model.Transaction{
		txn("2020-01-02", "EVOLUTION GAMING", "SE0012673267"),
		txn("2020-06-01", "EVOLUTION", "SE0012673267"),
	})

	require.Len(t, p.Suggestions, 1)
	s := p.Suggestions[0]
	assert.Equal(t, "EVOLUTION", s.SourceSymbol)
	assert.Equal(t, "EVOLUTION GAMING", s.TargetSymbol)
	assert.Equal(t, "SE0012673267", s.SourceISIN)
	assert.Equal(t, "SE0012673267", s.TargetISIN)
	assert.True(t, s.HasConfidence)
	assert.False(t, s.CrossISIN())
	assert.Contains(t, s.Rationale, "share ISIN SE0012673267")
	assert.Equal(t, model.StatusPending, s.Status)
}

func TestBuildSkipsDissimilarSymbolsSharingISIN(t *testing.T) {
	b := newTestBuilder()

	p := b.Build([]model.Transaction{
		txn("2020-01-02", "VOLVO B", "SE0000115446"),
		txn("2020-06-01", "ERICSSON B", "SE0000115446"),
	})

	assert.Empty(t, p.Suggestions)
}

func TestBuildCorporateActionSuggestion(t *testing.T) {
	b := newTestBuilder()

	p := b.Build([]model.Transaction{
		txn("2020-01-02", "KINNEVIK B", "SE0008373898"),
		txn("2021-05-20", "KINNEVIK B_NEW", "SE0015810247"),
	})

	require.Len(t, p.Suggestions, 1)
	s := p.Suggestions[0]
	assert.True(t, s.CrossISIN())
	assert.Equal(t, "ISIN change on 2021-05-20", s.Rationale)
}

func TestBuildSkipsAlreadyMappedSymbols(t *testing.T) {
	evaluator := match.NewEvaluator(match.DefaultConfig())
	m := mapper.New(evaluator)
	m.AddMapping("EVOLUTION GAMING", []string{"EVOLUTION"}, "SE0012673267")
	b := NewBuilder(m, evaluator)

	p := b.Build([]model.Transaction{
		txn("2020-01-02", "EVOLUTION GAMING", "SE0012673267"),
		txn("2020-06-01", "EVOLUTION", "SE0012673267"),
	})

	assert.Empty(t, p.Suggestions)
	assert.Equal(t, "EVOLUTION GAMING", p.SymbolMappings["EVOLUTION"])
}

func TestBuildSortsSuggestionsByConfidence(t *testing.T) {
	b := newTestBuilder()

	p := b.Build([]model.Transaction{
		txn("2020-01-02", "TELIA COMPANY", "SE0000667925"),
		txn("2020-02-02", "TELIA CO", "SE0000667925"),
		txn("2020-03-02", "SINCH AB", "SE0016101844"),
		txn("2020-04-02", "SINCH", "SE0016101844"),
	})

	require.GreaterOrEqual(t, len(p.Suggestions), 2)
	for i := 1; i < len(p.Suggestions); i++ {
		assert.GreaterOrEqual(t, p.Suggestions[i-1].Confidence, p.Suggestions[i].Confidence)
	}
}

func TestResolveConflicts(t *testing.T) {
	p := model.NewMappingPlan()
	p.SymbolMappings["SHORT"] = "MUCH LONGER NAME"
	p.SymbolMappings["MUCH LONGER NAME"] = "SHORT"

	ResolveConflicts(p)

	assert.Equal(t, "MUCH LONGER NAME", p.SymbolMappings["SHORT"])
	_, exists := p.SymbolMappings["MUCH LONGER NAME"]
	assert.False(t, exists)
}

func TestCorporateActionRationaleWithoutDate(t *testing.T) {
	assert.Equal(t, "ISIN change", corporateActionRationale("SE0000000001", nil))
}
