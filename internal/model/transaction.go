// Package model defines the core domain types shared across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TransactionType identifies the economic effect of a transaction.
type TransactionType string

// Supported transaction types.
const (
	TypeBuy      TransactionType = "BUY"
	TypeSell     TransactionType = "SELL"
	TypeDividend TransactionType = "DIVIDEND"
	TypeSplit    TransactionType = "SPLIT"
	TypeMove     TransactionType = "MOVE"
)

// typeSynonyms maps broker-specific transaction terms to a type. Swedish
// terms come from Avanza and Nordnet export files.
var typeSynonyms = map[string]TransactionType{
	"buy":                    TypeBuy,
	"köp":                    TypeBuy,
	"köpt":                   TypeBuy,
	"sell":                   TypeSell,
	"sälj":                   TypeSell,
	"sålt":                   TypeSell,
	"dividend":               TypeDividend,
	"utdelning":              TypeDividend,
	"split":                  TypeSplit,
	"byte inlägg vp":         TypeSplit,
	"byte uttag vp":          TypeSplit,
	"övrigt":                 TypeSplit,
	"move":                   TypeMove,
	"värdepappersöverföring": TypeMove,
	"inlägg vp":              TypeMove,
}

// ParseTransactionType converts any recognized broker term to a
// TransactionType.
func ParseTransactionType(term string) (TransactionType, error) {
	if t, ok := typeSynonyms[strings.ToLower(strings.TrimSpace(term))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", term)
}

// Transaction represents a single security transaction from any broker.
// It is an immutable fact: identity resolution carries the canonical
// symbol alongside the transaction instead of rewriting Symbol.
type Transaction struct {
	Date     time.Time
	Symbol   string // security label as reported by the source
	ISIN     string // may be empty
	Type     TransactionType
	Currency string
	Quantity float64 // non-negative magnitude
	Price    float64 // unit price, non-negative
	Fee      float64 // non-negative
}

// TotalAmount is the gross cash effect of the transaction.
func (t Transaction) TotalAmount() float64 {
	return t.Quantity*t.Price + t.Fee
}

// Hash returns a stable content hash used for duplicate detection when
// archiving transactions.
func (t Transaction) Hash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%.4f:%.4f:%.4f",
		t.Date.Format("2006-01-02"),
		t.Symbol,
		t.ISIN,
		t.Type,
		t.Quantity,
		t.Price,
		t.Fee)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s - %s (%s): %s %.2f %s (%.2f @ %.2f) Fees: %.2f",
		t.Date.Format("2006-01-02"), t.Symbol, t.ISIN, t.Type,
		t.TotalAmount(), t.Currency, t.Quantity, t.Price, t.Fee)
}

// SortTransactions orders transactions by date, with BUY before any
// other type on the same day. The ledger relies on this ordering.
func SortTransactions(transactions []Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Type == TypeBuy && b.Type != TypeBuy
	})
}

// IsSorted reports whether transactions satisfy the ordering contract
// SortTransactions establishes.
func IsSorted(transactions []Transaction) bool {
	return sort.SliceIsSorted(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Type == TypeBuy && b.Type != TypeBuy
	})
}
