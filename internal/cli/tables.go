package cli

import (
	"fmt"
	"strings"

	"github.com/Sjoeborg/krona/internal/model"
)

// RenderSuggestions formats a suggestion batch as a numbered table.
func RenderSuggestions(suggestions []*model.Suggestion) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Mapping Suggestions"))
	b.WriteString("\n")

	header := fmt.Sprintf("%-4s %-3s %-24s %-24s %-14s %-14s %-6s %s",
		"ID", "", "Source", "Target", "Source ISIN", "Target ISIN", "Conf", "Info")
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n")

	for i, s := range suggestions {
		var status string
		switch s.Status {
		case model.StatusAccepted:
			status = SuccessStyle.Render("✔")
		case model.StatusDeclined:
			status = ErrorStyle.Render("✖")
		default:
			status = "☐"
		}

		confidence := "-"
		if s.HasConfidence {
			confidence = fmt.Sprintf("%.0f%%", s.Confidence*100)
		}

		isinStyle := SuccessStyle
		if s.CrossISIN() {
			isinStyle = WarningStyle
		}

		b.WriteString(fmt.Sprintf("%-4d %-3s %-24s %-24s %-14s %-14s %-6s %s\n",
			i,
			status,
			truncate(s.SourceSymbol, 24),
			truncate(s.TargetSymbol, 24),
			isinStyle.Render(valueOr(s.SourceISIN, "N/A")),
			isinStyle.Render(valueOr(s.TargetISIN, "N/A")),
			confidence,
			SubtleStyle.Render(s.Rationale)))
	}
	return b.String()
}

// RenderPositions formats the final position set as a table. Closed
// positions show realized profit; open ones show cost basis.
func RenderPositions(positions []*model.Position) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Positions"))
	b.WriteString("\n")

	header := fmt.Sprintf("%-24s %-14s %10s %14s %12s %10s %14s",
		"Symbol", "ISIN", "Quantity", "Cost Basis", "Dividends", "Fees", "Realized P/L")
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n")

	for _, p := range positions {
		realized := SubtleStyle.Render(fmt.Sprintf("%14s", "N/A"))
		if profit, ok := p.RealizedProfit(); ok {
			formatted := fmt.Sprintf("%14.2f", profit)
			if profit >= 0 {
				realized = SuccessStyle.Render(formatted)
			} else {
				realized = ErrorStyle.Render(formatted)
			}
		}

		b.WriteString(fmt.Sprintf("%-24s %-14s %10.2f %14.2f %12.2f %10.2f %s %s\n",
			truncate(p.Symbol, 24),
			p.ISIN,
			p.Quantity,
			p.CostBasis(),
			p.Dividends,
			p.Fees,
			realized,
			p.Currency))
	}
	return b.String()
}

// truncate shortens a label to max characters. Counted in runes so
// multibyte names are measured right and never cut mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
