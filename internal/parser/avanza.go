package parser

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Sjoeborg/krona/internal/model"
)

// avanzaColumns are the headers an Avanza export must carry.
var avanzaColumns = []string{
	"Datum",
	"Konto",
	"Typ av transaktion",
	"Värdepapper/beskrivning",
	"Antal",
	"Kurs",
	"Belopp",
	"Transaktionsvaluta",
	"Courtage (SEK)",
	"Valutakurs",
	"Instrumentvaluta",
	"ISIN",
	"Resultat",
}

// AvanzaParser reads Avanza's semicolon-separated CSV export
// (UTF-8 with BOM, decimal commas).
type AvanzaParser struct{}

// NewAvanzaParser creates an Avanza export parser.
func NewAvanzaParser() *AvanzaParser {
	return &AvanzaParser{}
}

// Name implements Parser.
func (p *AvanzaParser) Name() string { return "avanza" }

// Detect implements Parser.
func (p *AvanzaParser) Detect(path string) bool {
	header, err := readAvanzaHeader(path)
	if err != nil {
		return false
	}
	for _, col := range avanzaColumns {
		if _, ok := header[col]; !ok {
			return false
		}
	}
	return true
}

// ParseFile implements Parser.
func (p *AvanzaParser) ParseFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read avanza export: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := indexHeader(records[0])
	var transactions []model.Transaction

	for _, row := range records[1:] {
		t, ok := p.parseRow(header, row)
		if !ok {
			continue
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

func (p *AvanzaParser) parseRow(header map[string]int, row []string) (model.Transaction, bool) {
	get := func(col string) string {
		idx, ok := header[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	transactionType, err := model.ParseTransactionType(get("Typ av transaktion"))
	if err != nil {
		slog.Debug("Skipping avanza row with unknown type", "type", get("Typ av transaktion"))
		return model.Transaction{}, false
	}

	date, err := time.Parse("2006-01-02", get("Datum"))
	if err != nil {
		slog.Warn("Skipping avanza row with bad date", "date", get("Datum"))
		return model.Transaction{}, false
	}

	quantity, err := parseDecimal(get("Antal"))
	if err != nil {
		return model.Transaction{}, false
	}
	price, _ := parseDecimal(get("Kurs"))
	fee, _ := parseDecimal(get("Courtage (SEK)"))
	fx, _ := parseDecimal(get("Valutakurs"))
	if fx == 0 {
		fx = 1
	}

	// Avanza encodes a correction of an erroneous SELL as a SELL with
	// positive quantity; flip it to BUY so the pair cancels out.
	if transactionType == model.TypeSell && quantity > 0 {
		transactionType = model.TypeBuy
	}

	return model.Transaction{
		Date:     date,
		Symbol:   get("Värdepapper/beskrivning"),
		ISIN:     get("ISIN"),
		Type:     transactionType,
		Currency: get("Transaktionsvaluta"),
		Quantity: abs(quantity),
		Price:    abs(fx * price),
		Fee:      abs(fee),
	}, true
}

func readAvanzaHeader(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return indexHeader(header), nil
}

// indexHeader maps column names to indices, stripping a UTF-8 BOM from
// the first cell.
func indexHeader(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimPrefix(col, "\uFEFF")
		if _, exists := index[strings.TrimSpace(col)]; !exists {
			index[strings.TrimSpace(col)] = i
		}
	}
	return index
}
