package model

import "fmt"

// Position is the running state of one holding, keyed by its canonical
// symbol. A closed position stays in the ledger so realized profit can
// be reported, and may reopen on a later BUY.
type Position struct {
	Symbol    string
	ISIN      string
	Currency  string
	Quantity  float64 // invariant: >= 0 after every applied transaction
	AvgPrice  float64 // weighted average cost per unit
	Dividends float64
	Fees      float64

	Transactions []Transaction

	// SplitBuffer holds at most one SPLIT transaction waiting for its
	// pairing counterpart.
	SplitBuffer *Transaction
}

// NewPosition creates an empty position from the first transaction seen
// for a security.
func NewPosition(t Transaction) *Position {
	return &Position{
		Symbol:   t.Symbol,
		ISIN:     t.ISIN,
		Currency: t.Currency,
	}
}

// CostBasis is the total acquisition cost of the current holding.
func (p *Position) CostBasis() float64 {
	return p.Quantity * p.AvgPrice
}

// IsClosed reports whether the position has been fully sold.
func (p *Position) IsClosed() bool {
	return p.Quantity == 0
}

// RealizedProfit is defined only once the position is closed:
// sell proceeds minus buy cost, plus dividends, minus fees.
// The second return value is false while the position is open.
func (p *Position) RealizedProfit() (float64, bool) {
	if !p.IsClosed() {
		return 0, false
	}
	var bought, sold float64
	for _, t := range p.Transactions {
		switch t.Type {
		case TypeBuy:
			bought += t.TotalAmount()
		case TypeSell:
			sold += t.TotalAmount()
		case TypeDividend, TypeSplit, TypeMove:
		}
	}
	return sold - bought + p.Dividends - p.Fees, true
}

func (p *Position) String() string {
	return fmt.Sprintf("%s (%s) - %.2f %s (%.2f @ %.2f) Dividends: %.2f. Fees: %.2f",
		p.Symbol, p.ISIN, p.CostBasis(), p.Currency, p.Quantity, p.AvgPrice, p.Dividends, p.Fees)
}
