package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sjoeborg/krona/internal/model"
)

// Run starts the positions browser and blocks until the user quits.
func Run(ctx context.Context, positions []*model.Position) error {
	program := tea.NewProgram(
		NewModel(positions),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("positions browser failed: %w", err)
	}
	return nil
}
