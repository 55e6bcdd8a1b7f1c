package ledger

import (
	"log/slog"
	"math"

	"github.com/Sjoeborg/krona/internal/model"
)

// A stock split arrives as two SPLIT transactions for the same logical
// event: one carrying the pre-split identity and quantity, one the
// post-split. Each position keeps a one-slot buffer; the first half is
// stored with no effect, the second half pairs with it and commits the
// ratio.
func (l *Ledger) applySplit(position *model.Position, t model.Transaction) {
	if position.SplitBuffer == nil {
		slog.Debug("Buffering split half", "symbol", position.Symbol, "quantity", t.Quantity)
		buffered := t
		position.SplitBuffer = &buffered
		return
	}

	previous := *position.SplitBuffer
	position.SplitBuffer = nil

	// Same-day halves with a ratio below 1 are assumed to have arrived
	// in the wrong order; reverse splits are not supported. This is a
	// heuristic, not a certainty.
	if previous.Date.Equal(t.Date) && previous.Quantity != 0 && t.Quantity/previous.Quantity < 1 {
		slog.Warn("Assuming split halves arrived out of order; reverse splits are not supported",
			"symbol", position.Symbol,
			"date", t.Date.Format("2006-01-02"),
			"assumed_ratio", previous.Quantity/t.Quantity)
		t, previous = previous, t
	}

	if previous.Quantity == 0 {
		slog.Warn("Discarding split pair with zero pre-split quantity", "symbol", position.Symbol)
		return
	}

	ratio := t.Quantity / previous.Quantity

	newQuantity := position.Quantity * ratio
	if math.Abs(newQuantity) < QuantityEpsilon {
		newQuantity = 0
	} else {
		newQuantity = math.Round(newQuantity)
	}
	newPrice := position.AvgPrice / ratio

	slog.Info("Applying split",
		"symbol", position.Symbol,
		"ratio", ratio,
		"old_quantity", position.Quantity,
		"new_quantity", newQuantity,
		"old_price", position.AvgPrice,
		"new_price", newPrice)

	position.Quantity = newQuantity
	position.AvgPrice = newPrice

	// The security's identity persists across an ISIN change.
	if t.ISIN != "" && t.ISIN != position.ISIN {
		position.ISIN = t.ISIN
	}
}

// UnpairedSplits returns the positions still holding a buffered SPLIT
// half at the end of a run. The buffered half has no economic effect;
// it is surfaced so the data problem is visible.
func (l *Ledger) UnpairedSplits() []*model.Position {
	var out []*model.Position
	for _, p := range l.Sorted() {
		if p.SplitBuffer != nil {
			out = append(out, p)
		}
	}
	return out
}
