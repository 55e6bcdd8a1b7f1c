// Package parser turns broker export files into transaction values.
// Each parser recognizes its own format; ReadDirectory sniffs and
// parses every file it can and returns one stream, sorted by date with
// BUY before SELL on ties, as the processing engine requires.
package parser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Sjoeborg/krona/internal/common"
	"github.com/Sjoeborg/krona/internal/model"
)

// Parser reads one broker's export format.
type Parser interface {
	// Name identifies the broker format in logs.
	Name() string
	// Detect reports whether the file looks like this parser's format.
	Detect(path string) bool
	// ParseFile reads every recognizable transaction from the file.
	// Rows with unknown transaction types are skipped with a warning,
	// never an error.
	ParseFile(path string) ([]model.Transaction, error)
}

// DefaultParsers returns every supported broker parser.
func DefaultParsers() []Parser {
	return []Parser{NewAvanzaParser(), NewNordnetParser(), NewOFXParser()}
}

// ReadDirectory parses every export file in dir that any parser
// recognizes and returns the combined, sorted transaction stream.
func ReadDirectory(dir string, parsers []Parser) ([]model.Transaction, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("cannot read export directory %s", dir), err)
	}

	var transactions []model.Transaction
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		parsed := false
		for _, p := range parsers {
			if !p.Detect(path) {
				continue
			}
			txns, err := p.ParseFile(path)
			if err != nil {
				slog.Warn("Failed to parse export file",
					"file", path,
					"parser", p.Name(),
					"error", err)
				break
			}
			slog.Info("Parsed export file",
				"file", entry.Name(),
				"parser", p.Name(),
				"transactions", len(txns))
			transactions = append(transactions, txns...)
			parsed = true
			break
		}
		if !parsed {
			slog.Debug("No parser recognized file", "file", path)
		}
	}

	model.SortTransactions(transactions)
	return transactions, nil
}

// parseDecimal converts a broker-formatted number to a float,
// tolerating decimal commas, thousand-separator spaces, and empty
// cells (which become zero).
func parseDecimal(value string) (float64, error) {
	cleaned := strings.ReplaceAll(value, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" || cleaned == "-" {
		return 0, nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
