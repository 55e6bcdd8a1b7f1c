package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sjoeborg/krona/internal/cli"
	"github.com/Sjoeborg/krona/internal/quote"
)

func quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <symbol or name>",
		Short: "Look up a security and its recent closing prices",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runQuote,
	}

	cmd.Flags().IntP("days", "d", 30, "Days of price history to fetch")
	_ = viper.BindPFlag("quote.days", cmd.Flags().Lookup("days"))

	return cmd
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := args[0]
	for _, arg := range args[1:] {
		query += " " + arg
	}

	client := quote.NewYahooClient()

	info, err := client.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	slog.Info("Found security", "symbol", info.Symbol, "exchange", info.Exchange, "name", info.Name)

	days := viper.GetInt("quote.days")
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	quotes, err := client.History(ctx, info.Symbol, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch price history: %w", err)
	}
	if len(quotes) == 0 {
		slog.Warn("No price history available", "symbol", info.Symbol)
		return nil
	}

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("%s (%s)", info.Name, info.Symbol)))
	for _, q := range quotes {
		fmt.Printf("%s  %10.2f %s\n", q.Date.Format("2006-01-02"), q.Price, q.Currency)
	}

	latest := quotes[len(quotes)-1]
	fmt.Println(cli.SuccessStyle.Render(
		fmt.Sprintf("Latest close: %.2f %s (%s)", latest.Price, latest.Currency, latest.Date.Format("2006-01-02"))))
	return nil
}
