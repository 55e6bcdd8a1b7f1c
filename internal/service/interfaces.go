// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Sjoeborg/krona/internal/model"
)

// ManualMapping is a brand-new alias->canonical mapping entered during
// review, outside the suggestion list.
type ManualMapping struct {
	Source string
	Target string
}

// Decider is the capability that turns pending suggestions into
// accept/decline/edit decisions. The interactive CLI prompter and the
// non-interactive auto decider both implement it, so batch and
// interactive runs share the same review logic.
type Decider interface {
	// Review presents one batch of suggestions. preAccepted tells the
	// decider the batch arrived already marked accepted (the
	// high-confidence partition) and only needs optional overrides.
	// Implementations mutate suggestion statuses/targets in place and
	// may return manual mappings to add to the plan.
	Review(ctx context.Context, suggestions []*model.Suggestion, preAccepted bool) ([]ManualMapping, error)
}

// Decisions is the persisted memory of past suggestion review runs,
// keyed by rationale text.
type Decisions struct {
	Accepted []string
	Declined []string
}

// MappingStore persists the identity table and review decisions in a
// human-editable form. Loading missing or malformed state yields empty
// tables, never an error the run cannot recover from.
type MappingStore interface {
	LoadGroups() (map[string]*model.SymbolGroup, error)
	SaveGroups(groups map[string]*model.SymbolGroup) error
	LoadDecisions() (Decisions, error)
	SaveDecisions(decisions Decisions) error
}

// TransactionFilter narrows archive queries. Symbol matches the raw
// broker label; Canonical matches the resolved identity a transaction
// was archived under, which spans every alias of a merged security.
type TransactionFilter struct {
	Symbol    string
	Canonical string
	StartDate *time.Time
	EndDate   *time.Time
}

// TransactionStore archives parsed transactions and finished position
// snapshots for later inspection. Transactions keep their raw broker
// symbol; the canonical resolver records which identity each one was
// folded into so merged histories stay queryable as one. A nil
// resolver archives each transaction under its own symbol.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction, canonical func(model.Transaction) string) (int, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	SavePositions(ctx context.Context, positions []*model.Position) error
	GetPositions(ctx context.Context) ([]*model.Position, error)
	Migrate(ctx context.Context) error
	Close() error
}

// QuoteProvider looks up market prices for a security. Implementations
// live outside the core; nothing in the accounting path depends on one.
type QuoteProvider interface {
	Search(ctx context.Context, query string) (SecurityInfo, error)
	History(ctx context.Context, symbol string, start, end time.Time) ([]Quote, error)
}

// SecurityInfo identifies a security on a quote venue.
type SecurityInfo struct {
	Symbol   string
	Exchange string
	Name     string
}

// Quote is one closing price observation.
type Quote struct {
	Date     time.Time
	Price    float64
	Currency string
}
