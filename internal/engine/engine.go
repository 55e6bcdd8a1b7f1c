// Package engine replays a sorted transaction stream through identity
// resolution and the position ledger.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sjoeborg/krona/internal/common"
	"github.com/Sjoeborg/krona/internal/ledger"
	"github.com/Sjoeborg/krona/internal/mapper"
	"github.com/Sjoeborg/krona/internal/model"
	"github.com/schollz/progressbar/v3"
)

// Processor orchestrates one run: for each transaction it asks the
// mapper for the canonical identity, then delegates to the ledger.
// Identity resolution for the whole run (the mapping plan and its
// review) must be complete before Process is called; during replay the
// mapper only accumulates aliases confirmed by ISIN evidence.
type Processor struct {
	mapper *mapper.Mapper
	ledger *ledger.Ledger
}

// Stats summarizes a replay.
type Stats struct {
	Processed      int
	Merged         int
	OpenPositions  int
	ClosedTotal    int
	UnpairedSplits int
	Duration       time.Duration
}

// New creates a processor around the given mapper and ledger.
func New(m *mapper.Mapper, l *ledger.Ledger) *Processor {
	return &Processor{mapper: m, ledger: l}
}

// Ledger exposes the underlying ledger for reporting.
func (p *Processor) Ledger() *ledger.Ledger {
	return p.ledger
}

// Process replays the transactions. The stream must already be sorted
// by (date, BUY before SELL); handing over an unsorted stream is a
// contract violation and fails fast. showProgress renders a progress
// bar on stderr.
func (p *Processor) Process(ctx context.Context, transactions []model.Transaction, showProgress bool) (Stats, error) {
	if !model.IsSorted(transactions) {
		return Stats{}, common.ErrUnsortedStream
	}

	start := time.Now()
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(transactions)), "processing")
	}

	stats := Stats{}
	for _, t := range transactions {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		canonical, merged := p.resolve(t)
		if merged {
			stats.Merged++
		}
		p.ledger.Apply(canonical, t)
		stats.Processed++

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	for _, position := range p.ledger.Positions() {
		if position.IsClosed() {
			stats.ClosedTotal++
		} else {
			stats.OpenPositions++
		}
	}
	for _, position := range p.ledger.UnpairedSplits() {
		slog.Warn("Split half never received its pairing transaction",
			"symbol", position.Symbol,
			"date", position.SplitBuffer.Date.Format("2006-01-02"))
		stats.UnpairedSplits++
	}

	stats.Duration = time.Since(start)
	slog.Info("Replay complete",
		"transactions", stats.Processed,
		"merged", stats.Merged,
		"open_positions", stats.OpenPositions,
		"closed_positions", stats.ClosedTotal)
	return stats, nil
}

// resolve finds the canonical symbol for a transaction. When it lands
// on an existing position under a different label, the alias is folded
// into the mapper so later transactions resolve directly. This covers
// ISIN-linked variants the batch plan missed.
func (p *Processor) resolve(t model.Transaction) (string, bool) {
	matched := p.mapper.MatchToKnown(t.Symbol, p.ledger.Positions(), t.ISIN)
	if matched == "" {
		return p.mapper.Resolve(t.Symbol, t.ISIN), false
	}

	if matched != t.Symbol {
		p.mapper.AddMapping(matched, []string{t.Symbol}, t.ISIN)
		slog.Debug("Merged transaction into existing position",
			"symbol", t.Symbol,
			"canonical", matched)
		return matched, true
	}
	return matched, false
}
