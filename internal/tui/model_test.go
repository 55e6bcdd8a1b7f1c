package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoeborg/krona/internal/model"
)

func testPositions() []*model.Position {
	return []*model.Position{
		{Symbol: "VOLVO B", Quantity: 10, AvgPrice: 100, Currency: "SEK"},
		{Symbol: "AAPL", Quantity: 0, AvgPrice: 130, Currency: "USD",
			Transactions: []model.Transaction{{Type: model.TypeBuy, Quantity: 5, Price: 130}}},
	}
}

func TestNewModelPartitionsPositions(t *testing.T) {
	m := NewModel(testPositions())

	require.Len(t, m.open, 1)
	require.Len(t, m.closed, 1)
	assert.Equal(t, "VOLVO B", m.open[0].Symbol)
	assert.Equal(t, "AAPL", m.closed[0].Symbol)
	assert.Equal(t, ViewOpen, m.view)
}

func TestToggleViewSwitchesBetweenOpenAndClosed(t *testing.T) {
	m := NewModel(testPositions())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, ViewClosed, m.view)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, ViewOpen, m.view)
}

func TestSelectOpensDetailAndEscReturns(t *testing.T) {
	m := NewModel(testPositions())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.Equal(t, ViewDetail, m.view)
	assert.Equal(t, "VOLVO B", m.selected.Symbol)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.Equal(t, ViewOpen, m.view)
	assert.Nil(t, m.selected)
}

func TestQuit(t *testing.T) {
	m := NewModel(testPositions())

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = updated.(Model)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
}

func TestViewRendersCurrentMode(t *testing.T) {
	m := NewModel(testPositions())

	out := m.View()
	assert.Contains(t, out, "Open Positions (1)")
	assert.Contains(t, out, "VOLVO B")
}
