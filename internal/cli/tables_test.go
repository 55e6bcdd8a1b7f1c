package cli

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/Sjoeborg/krona/internal/model"
)

func TestRenderSuggestions(t *testing.T) {
	suggestions := []*model.Suggestion{
		{
			SourceSymbol:  "EVO",
			TargetSymbol:  "EVOLUTION GAMING",
			SourceISIN:    "SE0012673267",
			TargetISIN:    "SE0012673267",
			Confidence:    0.92,
			HasConfidence: true,
			Rationale:     "share ISIN",
			Status:        model.StatusAccepted,
		},
		{
			SourceSymbol: "OLD NAME",
			TargetSymbol: "NEW NAME",
			Rationale:    "ISIN change",
			Status:       model.StatusPending,
		},
	}

	out := RenderSuggestions(suggestions)

	assert.Contains(t, out, "EVOLUTION GAMING")
	assert.Contains(t, out, "92%")
	assert.Contains(t, out, "share ISIN")
	// A suggestion without a confidence score shows a dash.
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "N/A")
}

func TestRenderPositions(t *testing.T) {
	positions := []*model.Position{
		{
			Symbol:   "VOLVO B",
			ISIN:     "SE0000115446",
			Currency: "SEK",
			Quantity: 10,
			AvgPrice: 101,
		},
		{
			Symbol:    "AAPL",
			Currency:  "USD",
			Dividends: 10,
			Transactions: []model.Transaction{
				{Type: model.TypeBuy, Quantity: 10, Price: 100},
				{Type: model.TypeSell, Quantity: 10, Price: 150},
			},
		},
	}

	out := RenderPositions(positions)

	assert.Contains(t, out, "VOLVO B")
	assert.Contains(t, out, "N/A") // open position has no realized P/L
	assert.Contains(t, out, "510.00")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefghi…", truncate("abcdefghijkl", 10))

	// Multibyte names count runes, not bytes, and never split a rune.
	assert.Equal(t, "Värdepapper", truncate("Värdepapper", 11))
	assert.Equal(t, "Värde…", truncate("Värdepapper", 6))
	assert.True(t, utf8.ValidString(truncate("Söderberg & Partners", 9)))
}

func TestValueOr(t *testing.T) {
	assert.Equal(t, "x", valueOr("x", "fallback"))
	assert.Equal(t, "fallback", valueOr("", "fallback"))
}
