// Package testutil provides shared fixtures for krona tests: an
// in-memory archive and a transaction builder with sensible defaults.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Sjoeborg/krona/internal/model"
	"github.com/Sjoeborg/krona/internal/storage"
)

// SetupTestDB creates a migrated in-memory archive with automatic
// cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// TransactionBuilder builds test transactions with defaults so tests
// only state what they care about.
type TransactionBuilder struct {
	txn model.Transaction
}

// NewTransaction starts a builder for a BUY of 10 @ 100 SEK.
func NewTransaction(symbol string) *TransactionBuilder {
	return &TransactionBuilder{
		txn: model.Transaction{
			Date:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Symbol:   symbol,
			Type:     model.TypeBuy,
			Currency: "SEK",
			Quantity: 10,
			Price:    100,
		},
	}
}

func (b *TransactionBuilder) On(date string) *TransactionBuilder {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	b.txn.Date = d
	return b
}

func (b *TransactionBuilder) Type(t model.TransactionType) *TransactionBuilder {
	b.txn.Type = t
	return b
}

func (b *TransactionBuilder) Quantity(q float64) *TransactionBuilder {
	b.txn.Quantity = q
	return b
}

func (b *TransactionBuilder) Price(p float64) *TransactionBuilder {
	b.txn.Price = p
	return b
}

func (b *TransactionBuilder) Fee(f float64) *TransactionBuilder {
	b.txn.Fee = f
	return b
}

func (b *TransactionBuilder) ISIN(isin string) *TransactionBuilder {
	b.txn.ISIN = isin
	return b
}

func (b *TransactionBuilder) Currency(c string) *TransactionBuilder {
	b.txn.Currency = c
	return b
}

func (b *TransactionBuilder) Build() model.Transaction {
	return b.txn
}
