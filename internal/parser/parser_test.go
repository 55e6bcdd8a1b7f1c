package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoeborg/krona/internal/common"
	"github.com/Sjoeborg/krona/internal/model"
	"golang.org/x/text/encoding/unicode"
)

const avanzaExport = "Datum;Konto;Typ av transaktion;Värdepapper/beskrivning;Antal;Kurs;Belopp;Transaktionsvaluta;Courtage (SEK);Valutakurs;Instrumentvaluta;ISIN;Resultat\n" +
	"2021-01-04;ISK;Köp;EVOLUTION GAMING;23;214,50;-4933,50;SEK;19,00;1;SEK;SE0012673267;\n" +
	"2021-02-04;ISK;Sälj;EVOLUTION GAMING;-3;250,00;750,00;SEK;19,00;1;SEK;SE0012673267;110\n" +
	"2021-03-04;ISK;Utdelning;EVOLUTION GAMING;20;2,50;50,00;SEK;0,00;;SEK;SE0012673267;\n" +
	"2021-04-04;ISK;Preliminärskatt;;-;-;-15,00;SEK;0,00;;SEK;;\n"

const nordnetExport = "Id\tBokföringsdag\tAffärsdag\tLikviddag\tTransaktionstyp\tVärdepapper\tISIN\tAntal\tKurs\tValuta\tCourtage\tValuta\n" +
	"1\t2021-01-05\t2021-01-04\t2021-01-06\tKöpt\tVOLVO B\tSE0000115446\t10\t205,30\tSEK\t9\tSEK\n" +
	"2\t2021-02-05\t2021-02-04\t2021-02-06\tSålt\tVOLVO B\tSE0000115446\t-4\t215,00\tSEK\t9\tSEK\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeUTF16File(t *testing.T, dir, name, content string) string {
	t.Helper()
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := encoder.Bytes([]byte(content))
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, encoded, 0o600))
	return path
}

func TestAvanzaDetect(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "transaktioner.csv", avanzaExport)

	p := NewAvanzaParser()
	assert.True(t, p.Detect(path))
	assert.False(t, NewNordnetParser().Detect(path))
}

func TestAvanzaParseFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "transaktioner.csv", avanzaExport)

	transactions, err := NewAvanzaParser().ParseFile(path)
	require.NoError(t, err)
	// The tax row has no recognizable type and is skipped.
	require.Len(t, transactions, 3)

	buy := transactions[0]
	assert.Equal(t, model.TypeBuy, buy.Type)
	assert.Equal(t, "EVOLUTION GAMING", buy.Symbol)
	assert.Equal(t, "SE0012673267", buy.ISIN)
	assert.Equal(t, 23.0, buy.Quantity)
	assert.InDelta(t, 214.5, buy.Price, 0.001)
	assert.InDelta(t, 19.0, buy.Fee, 0.001)
	assert.Equal(t, "SEK", buy.Currency)

	sell := transactions[1]
	assert.Equal(t, model.TypeSell, sell.Type)
	assert.Equal(t, 3.0, sell.Quantity)

	dividend := transactions[2]
	assert.Equal(t, model.TypeDividend, dividend.Type)
	assert.InDelta(t, 2.5, dividend.Price, 0.001)
}

func TestAvanzaCorrectionSellBecomesBuy(t *testing.T) {
	export := "Datum;Konto;Typ av transaktion;Värdepapper/beskrivning;Antal;Kurs;Belopp;Transaktionsvaluta;Courtage (SEK);Valutakurs;Instrumentvaluta;ISIN;Resultat\n" +
		"2021-02-04;ISK;Sälj;VOLVO B;4;215,00;860,00;SEK;0,00;1;SEK;SE0000115446;\n"
	dir := t.TempDir()
	path := writeFile(t, dir, "transaktioner.csv", export)

	transactions, err := NewAvanzaParser().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, model.TypeBuy, transactions[0].Type)
	assert.Equal(t, 4.0, transactions[0].Quantity)
}

func TestAvanzaAppliesExchangeRate(t *testing.T) {
	export := "Datum;Konto;Typ av transaktion;Värdepapper/beskrivning;Antal;Kurs;Belopp;Transaktionsvaluta;Courtage (SEK);Valutakurs;Instrumentvaluta;ISIN;Resultat\n" +
		"2021-02-04;ISK;Köp;AAPL;2;130,00;-2236,00;SEK;1,00;8,60;USD;US0378331005;\n"
	dir := t.TempDir()
	path := writeFile(t, dir, "transaktioner.csv", export)

	transactions, err := NewAvanzaParser().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.InDelta(t, 1118.0, transactions[0].Price, 0.001)
}

func TestNordnetDetectAndParse(t *testing.T) {
	dir := t.TempDir()
	path := writeUTF16File(t, dir, "transactions-and-notes-export.csv", nordnetExport)

	p := NewNordnetParser()
	require.True(t, p.Detect(path))
	assert.False(t, NewAvanzaParser().Detect(path))

	transactions, err := p.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	buy := transactions[0]
	assert.Equal(t, model.TypeBuy, buy.Type)
	assert.Equal(t, "VOLVO B", buy.Symbol)
	assert.Equal(t, "SE0000115446", buy.ISIN)
	assert.Equal(t, 10.0, buy.Quantity)
	assert.InDelta(t, 205.3, buy.Price, 0.001)
	assert.Equal(t, "SEK", buy.Currency)
	assert.Equal(t, "2021-01-04", buy.Date.Format("2006-01-02"))

	sell := transactions[1]
	assert.Equal(t, model.TypeSell, sell.Type)
	assert.Equal(t, 4.0, sell.Quantity)
}

func TestReadDirectoryCombinesAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "avanza.csv", avanzaExport)
	writeUTF16File(t, dir, "nordnet.csv", nordnetExport)
	writeFile(t, dir, "notes.txt", "not an export")

	transactions, err := ReadDirectory(dir, DefaultParsers())
	require.NoError(t, err)
	require.Len(t, transactions, 5)
	assert.True(t, model.IsSorted(transactions))
	assert.Equal(t, "2021-01-04", transactions[0].Date.Format("2006-01-02"))
}

func TestReadDirectoryMissing(t *testing.T) {
	_, err := ReadDirectory(filepath.Join(t.TempDir(), "nope"), DefaultParsers())
	require.Error(t, err)

	// Surfaced as a user-facing message with the real cause attached.
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "cannot read export directory")
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"214,50", 214.5},
		{"1 234,56", 1234.56},
		{"100", 100},
		{"", 0},
		{"-", 0},
		{"-3", -3},
	}

	for _, tt := range tests {
		got, err := parseDecimal(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 0.001, tt.in)
	}
}

func TestParseDecimalInvalid(t *testing.T) {
	_, err := parseDecimal("abc")
	assert.Error(t, err)
}
