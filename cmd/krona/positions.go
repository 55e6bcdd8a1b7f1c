package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sjoeborg/krona/internal/cli"
	"github.com/Sjoeborg/krona/internal/tui"
)

func positionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show the archived position snapshot",
		Long: `Displays the positions saved by the last process run. With
--interactive the positions open in a browsable terminal UI.`,
		RunE: runPositions,
	}

	cmd.Flags().BoolP("interactive", "i", false, "Browse positions in a terminal UI")
	cmd.Flags().Bool("open-only", false, "Show only open positions")

	_ = viper.BindPFlag("positions.interactive", cmd.Flags().Lookup("interactive"))
	_ = viper.BindPFlag("positions.open_only", cmd.Flags().Lookup("open-only"))

	return cmd
}

func runPositions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initTransactionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close archive", "error", err)
		}
	}()

	positions, err := store.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load positions: %w", err)
	}
	if len(positions) == 0 {
		slog.Warn("No archived positions; run 'krona process' first")
		return nil
	}

	if viper.GetBool("positions.open_only") {
		kept := positions[:0]
		for _, p := range positions {
			if !p.IsClosed() {
				kept = append(kept, p)
			}
		}
		positions = kept
	}

	if viper.GetBool("positions.interactive") {
		return tui.Run(ctx, positions)
	}

	fmt.Println(cli.RenderPositions(positions))
	return nil
}
