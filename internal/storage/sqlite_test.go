package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoeborg/krona/internal/model"
	"github.com/Sjoeborg/krona/internal/service"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "krona.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testTxn(date, symbol string, txnType model.TransactionType, quantity float64) model.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return model.Transaction{
		Date:     d,
		Symbol:   symbol,
		Type:     txnType,
		Currency: "SEK",
		Quantity: quantity,
		Price:    100,
	}
}

func TestSaveTransactionsSkipsDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	transactions := []model.Transaction{
		testTxn("2020-01-02", "VOLVO B", model.TypeBuy, 10),
		testTxn("2020-02-02", "VOLVO B", model.TypeSell, 4),
	}

	inserted, err := store.SaveTransactions(ctx, transactions, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Importing the same file again adds nothing.
	inserted, err = store.SaveTransactions(ctx, transactions, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	loaded, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestGetTransactionsFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, []model.Transaction{
		testTxn("2020-01-02", "VOLVO B", model.TypeBuy, 10),
		testTxn("2020-06-02", "AAPL", model.TypeBuy, 5),
		testTxn("2021-01-02", "VOLVO B", model.TypeSell, 10),
	}, nil)
	require.NoError(t, err)

	bySymbol, err := store.GetTransactions(ctx, service.TransactionFilter{Symbol: "VOLVO B"})
	require.NoError(t, err)
	assert.Len(t, bySymbol, 2)

	from, _ := time.Parse("2006-01-02", "2020-06-01")
	to, _ := time.Parse("2006-01-02", "2020-12-31")
	byDate, err := store.GetTransactions(ctx, service.TransactionFilter{StartDate: &from, EndDate: &to})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "AAPL", byDate[0].Symbol)
}

func TestGetTransactionsOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, []model.Transaction{
		testTxn("2020-01-02", "A", model.TypeSell, 1),
		testTxn("2020-01-02", "A", model.TypeBuy, 1),
		testTxn("2019-12-02", "A", model.TypeBuy, 2),
	}, nil)
	require.NoError(t, err)

	loaded, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.True(t, model.IsSorted(loaded))
	assert.Equal(t, model.TypeBuy, loaded[1].Type)
	assert.Equal(t, model.TypeSell, loaded[2].Type)
}

func TestPositionsSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	positions := []*model.Position{
		{Symbol: "VOLVO B", ISIN: "SE0000115446", Currency: "SEK", Quantity: 10, AvgPrice: 101, Dividends: 25, Fees: 19},
		{Symbol: "AAPL", Currency: "USD", Quantity: 0, AvgPrice: 130},
	}
	require.NoError(t, store.SavePositions(ctx, positions))

	loaded, err := store.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "AAPL", loaded[0].Symbol)
	assert.True(t, loaded[0].IsClosed())
	assert.Equal(t, "VOLVO B", loaded[1].Symbol)
	assert.InDelta(t, 101.0, loaded[1].AvgPrice, 0.001)
	assert.InDelta(t, 25.0, loaded[1].Dividends, 0.001)
}

func TestSavePositionsReplacesSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePositions(ctx, []*model.Position{{Symbol: "OLD", Quantity: 1}}))
	require.NoError(t, store.SavePositions(ctx, []*model.Position{{Symbol: "NEW", Quantity: 2}}))

	loaded, err := store.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "NEW", loaded[0].Symbol)
}

func TestGetPositionsAttachesTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, []model.Transaction{
		testTxn("2020-01-02", "VOLVO B", model.TypeBuy, 10),
		testTxn("2020-02-02", "VOLVO B", model.TypeSell, 10),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, store.SavePositions(ctx, []*model.Position{{Symbol: "VOLVO B", Quantity: 0}}))

	loaded, err := store.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Len(t, loaded[0].Transactions, 2)

	_, ok := loaded[0].RealizedProfit()
	assert.True(t, ok)
}

func TestGetPositionsAttachesMergedAliasHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	aliases := map[string]string{"EVO": "EVOLUTION GAMING"}
	resolve := func(t model.Transaction) string {
		if canonical, ok := aliases[t.Symbol]; ok {
			return canonical
		}
		return t.Symbol
	}

	// The buy came in under an alias label; the sell under the
	// canonical one. Both belong to the same merged position.
	_, err := store.SaveTransactions(ctx, []model.Transaction{
		testTxn("2020-01-02", "EVO", model.TypeBuy, 10),
		testTxn("2020-02-02", "EVOLUTION GAMING", model.TypeSell, 10),
	}, resolve)
	require.NoError(t, err)
	require.NoError(t, store.SavePositions(ctx, []*model.Position{{Symbol: "EVOLUTION GAMING", Quantity: 0}}))

	loaded, err := store.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Len(t, loaded[0].Transactions, 2)

	// Realized profit covers the full history, alias rows included.
	realized, ok := loaded[0].RealizedProfit()
	require.True(t, ok)
	assert.InDelta(t, 0.0, realized, 0.001)
}

func TestSaveTransactionsRefreshesCanonical(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	transactions := []model.Transaction{testTxn("2020-01-02", "EVO", model.TypeBuy, 10)}

	// First run archives the row under its own label.
	_, err := store.SaveTransactions(ctx, transactions, nil)
	require.NoError(t, err)

	// A later run accepts the merge; the duplicate insert is skipped
	// but the canonical is refreshed.
	inserted, err := store.SaveTransactions(ctx, transactions, func(model.Transaction) string {
		return "EVOLUTION GAMING"
	})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	byCanonical, err := store.GetTransactions(ctx, service.TransactionFilter{Canonical: "EVOLUTION GAMING"})
	require.NoError(t, err)
	require.Len(t, byCanonical, 1)
	assert.Equal(t, "EVO", byCanonical[0].Symbol)
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}
