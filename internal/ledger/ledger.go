// Package ledger applies an ordered transaction stream to per-security
// positions: weighted-average cost accumulation, sign-guarded quantity
// updates, dividend and fee accrual, and stock-split pairing.
package ledger

import (
	"log/slog"
	"math"
	"sort"

	"github.com/Sjoeborg/krona/internal/common"
	"github.com/Sjoeborg/krona/internal/model"
)

// QuantityEpsilon is the smallest meaningful quantity. Results with
// absolute value below it are clamped to zero so floating point residue
// cannot keep a position erroneously open.
const QuantityEpsilon = 1e-5

// Ledger owns the per-security positions, keyed by canonical symbol.
// Positions are never removed: a closed position stays for realized
// profit reporting and may reopen on a later BUY.
type Ledger struct {
	positions map[string]*model.Position
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{positions: make(map[string]*model.Position)}
}

// Positions returns the position map keyed by canonical symbol.
func (l *Ledger) Positions() map[string]*model.Position {
	return l.positions
}

// Get returns the position for a canonical symbol, or nil.
func (l *Ledger) Get(symbol string) *model.Position {
	return l.positions[symbol]
}

// Sorted returns the positions ordered by symbol.
func (l *Ledger) Sorted() []*model.Position {
	out := make([]*model.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Apply records one transaction against the position registered under
// the canonical symbol, creating the position if it does not exist.
// Invalid accounting transitions reject the single transaction with a
// warning and leave the position unchanged; they are never fatal.
func (l *Ledger) Apply(canonical string, t model.Transaction) *model.Position {
	position, ok := l.positions[canonical]
	if !ok {
		position = model.NewPosition(t)
		position.Symbol = canonical
		l.positions[canonical] = position
	}

	switch t.Type {
	case model.TypeBuy:
		if err := l.applyBuy(position, t); err != nil {
			slog.Warn("Rejecting buy",
				"symbol", position.Symbol,
				"position_quantity", position.Quantity,
				"transaction_quantity", t.Quantity,
				"error", err)
		}
	case model.TypeSell:
		l.applySell(position, t)
	case model.TypeDividend:
		position.Dividends += t.Price * t.Quantity
	case model.TypeSplit:
		l.applySplit(position, t)
	case model.TypeMove:
		// Inter-account transfers are economically neutral.
		slog.Debug("Ignoring move transaction", "symbol", canonical, "quantity", t.Quantity)
	}

	position.Fees += t.Fee
	position.Transactions = append(position.Transactions, t)
	if position.Currency == "" {
		position.Currency = t.Currency
	}
	return position
}

func (l *Ledger) applyBuy(position *model.Position, t model.Transaction) error {
	newQuantity := clamp(position.Quantity + t.Quantity)

	if newQuantity < 0 {
		return common.ErrNegativeQuantity
	}
	if newQuantity == 0 {
		// Guards the division in the weighted-average formula.
		return common.ErrZeroQuantity
	}

	position.AvgPrice = (t.Price*t.Quantity + t.Fee + position.AvgPrice*position.Quantity) / newQuantity
	position.Quantity = newQuantity
	return nil
}

func (l *Ledger) applySell(position *model.Position, t model.Transaction) {
	newQuantity := clamp(position.Quantity - t.Quantity)

	if newQuantity < 0 {
		slog.Warn("Oversell clamped to zero",
			"symbol", position.Symbol,
			"position_quantity", position.Quantity,
			"transaction_quantity", t.Quantity)
		newQuantity = 0
	}

	// Sells never move the average price.
	position.Quantity = newQuantity
}

// clamp rounds float residue near zero to exactly zero.
func clamp(quantity float64) float64 {
	if math.Abs(quantity) < QuantityEpsilon {
		return 0
	}
	return quantity
}
