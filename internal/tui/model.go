// Package tui provides an interactive positions browser.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sjoeborg/krona/internal/model"
)

// View represents the current view mode.
type View int

const (
	ViewOpen View = iota
	ViewClosed
	ViewDetail
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F5C518")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)

	tableStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// Model holds the browser state.
type Model struct {
	positions []*model.Position
	open      []*model.Position
	closed    []*model.Position
	selected  *model.Position
	table     table.Model
	detail    table.Model
	keymap    KeyMap
	view      View
	width     int
	height    int
	quitting  bool
}

// NewModel creates a positions browser over the given set.
func NewModel(positions []*model.Position) Model {
	m := Model{
		positions: positions,
		keymap:    DefaultKeyMap(),
		view:      ViewOpen,
	}
	for _, p := range positions {
		if p.IsClosed() {
			m.closed = append(m.closed, p)
		} else {
			m.open = append(m.open, p)
		}
	}
	m.table = newPositionTable(m.open)
	return m
}

func newPositionTable(positions []*model.Position) table.Model {
	columns := []table.Column{
		{Title: "Symbol", Width: 24},
		{Title: "ISIN", Width: 14},
		{Title: "Quantity", Width: 10},
		{Title: "Avg Price", Width: 10},
		{Title: "Dividends", Width: 10},
		{Title: "Fees", Width: 10},
		{Title: "Realized P/L", Width: 12},
	}

	rows := make([]table.Row, 0, len(positions))
	for _, p := range positions {
		realized := "N/A"
		if profit, ok := p.RealizedProfit(); ok {
			realized = fmt.Sprintf("%.2f", profit)
		}
		rows = append(rows, table.Row{
			p.Symbol,
			p.ISIN,
			fmt.Sprintf("%.2f", p.Quantity),
			fmt.Sprintf("%.2f", p.AvgPrice),
			fmt.Sprintf("%.2f", p.Dividends),
			fmt.Sprintf("%.2f", p.Fees),
			realized,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#1A1A1A")).
		Background(lipgloss.Color("#F5C518"))
	t.SetStyles(styles)
	return t
}

func newDetailTable(p *model.Position) table.Model {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Type", Width: 8},
		{Title: "Quantity", Width: 10},
		{Title: "Price", Width: 10},
		{Title: "Fee", Width: 8},
		{Title: "Total", Width: 12},
	}

	rows := make([]table.Row, 0, len(p.Transactions))
	for _, t := range p.Transactions {
		rows = append(rows, table.Row{
			t.Date.Format("2006-01-02"),
			string(t.Type),
			fmt.Sprintf("%.2f", t.Quantity),
			fmt.Sprintf("%.2f", t.Price),
			fmt.Sprintf("%.2f", t.Fee),
			fmt.Sprintf("%.2f", t.TotalAmount()),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	t.SetStyles(styles)
	return t
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.ToggleView):
			if m.view == ViewDetail {
				return m, nil
			}
			if m.view == ViewOpen {
				m.view = ViewClosed
				m.table = newPositionTable(m.closed)
			} else {
				m.view = ViewOpen
				m.table = newPositionTable(m.open)
			}
			return m, nil

		case key.Matches(msg, m.keymap.Select):
			if m.view == ViewDetail {
				return m, nil
			}
			if p := m.currentPosition(); p != nil {
				m.selected = p
				m.detail = newDetailTable(p)
				m.view = ViewDetail
			}
			return m, nil

		case key.Matches(msg, m.keymap.Back):
			if m.view == ViewDetail {
				m.view = ViewOpen
				if m.selected != nil && m.selected.IsClosed() {
					m.view = ViewClosed
				}
				m.selected = nil
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.view == ViewDetail {
		m.detail, cmd = m.detail.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m Model) currentPosition() *model.Position {
	set := m.open
	if m.view == ViewClosed {
		set = m.closed
	}
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(set) {
		return nil
	}
	return set[idx]
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var title, help string
	switch m.view {
	case ViewOpen:
		title = fmt.Sprintf("Open Positions (%d)", len(m.open))
		help = "↑/↓ navigate · tab closed positions · enter transactions · q quit"
	case ViewClosed:
		title = fmt.Sprintf("Closed Positions (%d)", len(m.closed))
		help = "↑/↓ navigate · tab open positions · enter transactions · q quit"
	case ViewDetail:
		title = fmt.Sprintf("%s — %d transactions", m.selected.Symbol, len(m.selected.Transactions))
		help = "↑/↓ navigate · esc back · q quit"
	}

	body := m.table.View()
	if m.view == ViewDetail {
		body = m.detail.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		tableStyle.Render(body),
		helpStyle.Render(help),
	)
}
