package parser

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Sjoeborg/krona/internal/model"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// nordnetColumns are the headers a Nordnet export must carry. The file
// repeats "Valuta" for several amount columns; the first occurrence is
// the transaction currency.
var nordnetColumns = []string{
	"Id",
	"Bokföringsdag",
	"Affärsdag",
	"Likviddag",
	"Transaktionstyp",
	"Värdepapper",
	"ISIN",
	"Antal",
	"Kurs",
	"Valuta",
	"Courtage",
}

// NordnetParser reads Nordnet's tab-separated, UTF-16 encoded export.
type NordnetParser struct{}

// NewNordnetParser creates a Nordnet export parser.
func NewNordnetParser() *NordnetParser {
	return &NordnetParser{}
}

// Name implements Parser.
func (p *NordnetParser) Name() string { return "nordnet" }

// Detect implements Parser.
func (p *NordnetParser) Detect(path string) bool {
	records, err := readNordnetRecords(path, 1)
	if err != nil || len(records) == 0 {
		return false
	}
	header := indexHeader(records[0])
	for _, col := range nordnetColumns {
		if _, ok := header[col]; !ok {
			return false
		}
	}
	return true
}

// ParseFile implements Parser.
func (p *NordnetParser) ParseFile(path string) ([]model.Transaction, error) {
	records, err := readNordnetRecords(path, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read nordnet export: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := indexHeader(records[0])
	var transactions []model.Transaction

	for _, row := range records[1:] {
		get := func(col string) string {
			idx, ok := header[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		transactionType, err := model.ParseTransactionType(get("Transaktionstyp"))
		if err != nil {
			slog.Debug("Skipping nordnet row with unknown type", "type", get("Transaktionstyp"))
			continue
		}

		date, err := time.Parse("2006-01-02", get("Affärsdag"))
		if err != nil {
			slog.Warn("Skipping nordnet row with bad date", "date", get("Affärsdag"))
			continue
		}

		quantity, err := parseDecimal(get("Antal"))
		if err != nil {
			continue
		}
		price, _ := parseDecimal(get("Kurs"))
		fee, _ := parseDecimal(get("Courtage"))

		transactions = append(transactions, model.Transaction{
			Date:     date,
			Symbol:   get("Värdepapper"),
			ISIN:     get("ISIN"),
			Type:     transactionType,
			Currency: get("Valuta"),
			Quantity: abs(quantity),
			Price:    abs(price),
			Fee:      abs(fee),
		})
	}
	return transactions, nil
}

// readNordnetRecords decodes the UTF-16 file and reads up to limit
// records (0 for all).
func readNordnetRecords(path string, limit int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	// Nordnet exports UTF-16 with a BOM; honor it, defaulting to
	// little-endian when absent.
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	reader := csv.NewReader(transform.NewReader(f, decoder))
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if limit <= 0 {
		return reader.ReadAll()
	}

	var records [][]string
	for len(records) < limit {
		record, err := reader.Read()
		if err != nil {
			break
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	return records, nil
}
