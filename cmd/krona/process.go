package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sjoeborg/krona/internal/cli"
	"github.com/Sjoeborg/krona/internal/engine"
	"github.com/Sjoeborg/krona/internal/ledger"
	"github.com/Sjoeborg/krona/internal/mapper"
	"github.com/Sjoeborg/krona/internal/match"
	"github.com/Sjoeborg/krona/internal/model"
	"github.com/Sjoeborg/krona/internal/parser"
	"github.com/Sjoeborg/krona/internal/plan"
	"github.com/Sjoeborg/krona/internal/review"
	"github.com/Sjoeborg/krona/internal/service"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <directory>",
		Short: "Parse broker exports and replay them into positions",
		Long: `Reads every transaction export in the directory, proposes symbol
mappings for securities appearing under multiple names, reviews them
interactively (or automatically with --batch), then replays the full
history into positions.`,
		Args: cobra.ExactArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().Bool("batch", false, "Non-interactive: auto-accept high-confidence suggestions, decline the rest")
	cmd.Flags().Float64("auto-accept", review.DefaultAutoAcceptThreshold, "Confidence at or above which suggestions are pre-accepted")
	cmd.Flags().Bool("no-archive", false, "Skip archiving transactions and positions to the database")
	cmd.Flags().Bool("progress", true, "Show a progress bar during replay")

	_ = viper.BindPFlag("process.batch", cmd.Flags().Lookup("batch"))
	_ = viper.BindPFlag("process.auto_accept", cmd.Flags().Lookup("auto-accept"))
	_ = viper.BindPFlag("process.no_archive", cmd.Flags().Lookup("no-archive"))
	_ = viper.BindPFlag("process.progress", cmd.Flags().Lookup("progress"))

	return cmd
}

func matchConfig() match.Config {
	return match.Config{
		Ratio:                viper.GetInt("matching.ratio"),
		PartialRatio:         viper.GetInt("matching.partial_ratio"),
		TokenSortRatio:       viper.GetInt("matching.token_sort_ratio"),
		TokenSetRatio:        viper.GetInt("matching.token_set_ratio"),
		CorporateActionRatio: viper.GetInt("matching.corporate_action_ratio"),
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]

	transactions, err := parser.ReadDirectory(dir, parser.DefaultParsers())
	if err != nil {
		return fmt.Errorf("failed to read transaction exports: %w", err)
	}
	if len(transactions) == 0 {
		slog.Warn("No transactions found", "directory", dir)
		return nil
	}
	slog.Info("Parsed transaction exports", "directory", dir, "transactions", len(transactions))

	mappingStore, err := initMappingStore()
	if err != nil {
		return fmt.Errorf("failed to open mappings: %w", err)
	}

	groups, err := mappingStore.LoadGroups()
	if err != nil {
		return fmt.Errorf("failed to load mapping groups: %w", err)
	}
	prior, err := mappingStore.LoadDecisions()
	if err != nil {
		return fmt.Errorf("failed to load review decisions: %w", err)
	}

	evaluator := match.NewEvaluator(matchConfig())
	m := mapper.New(evaluator)
	m.SeedGroups(groups)

	mappingPlan := plan.NewBuilder(m, evaluator).Build(transactions)

	var decider service.Decider = cli.NewPrompter(os.Stdin, os.Stdout)
	if viper.GetBool("process.batch") {
		decider = review.AutoDecider{}
	}

	workflow := review.New(decider, viper.GetFloat64("process.auto_accept"), prior)
	decisions, err := workflow.Run(ctx, mappingPlan)
	if err != nil {
		return fmt.Errorf("suggestion review failed: %w", err)
	}

	m.AcceptPlan(mappingPlan)

	book := ledger.New()
	processor := engine.New(m, book)
	stats, err := processor.Process(ctx, transactions, viper.GetBool("process.progress"))
	if err != nil {
		return fmt.Errorf("failed to replay transactions: %w", err)
	}

	positions := book.Sorted()
	fmt.Println(cli.RenderPositions(positions))
	slog.Info("Replay complete",
		"processed", stats.Processed,
		"merged", stats.Merged,
		"open", stats.OpenPositions,
		"closed", stats.ClosedTotal,
		"duration", stats.Duration)

	if err := mappingStore.SaveGroups(m.Groups()); err != nil {
		return fmt.Errorf("failed to save mapping groups: %w", err)
	}
	if err := mappingStore.SaveDecisions(decisions); err != nil {
		return fmt.Errorf("failed to save review decisions: %w", err)
	}

	if viper.GetBool("process.no_archive") {
		return nil
	}

	store, err := initTransactionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close archive", "error", err)
		}
	}()

	// The mapper now holds every alias confirmed during the run, so the
	// archive records which identity each raw row was folded into.
	inserted, err := store.SaveTransactions(ctx, transactions, func(t model.Transaction) string {
		return m.Resolve(t.Symbol, t.ISIN)
	})
	if err != nil {
		return fmt.Errorf("failed to archive transactions: %w", err)
	}
	if err := store.SavePositions(ctx, positions); err != nil {
		return fmt.Errorf("failed to archive positions: %w", err)
	}
	slog.Info("Archived run", "new_transactions", inserted, "positions", len(positions))

	return nil
}
