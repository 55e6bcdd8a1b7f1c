package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sjoeborg/krona/internal/model"
	"github.com/Sjoeborg/krona/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore archives parsed transactions and position snapshots so
// past runs can be inspected without re-reading the broker exports.
type SQLiteStore struct {
	db *sql.DB
}

var _ service.TransactionStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the archive database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema when missing.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	hash        TEXT PRIMARY KEY,
	date        TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	canonical   TEXT NOT NULL DEFAULT '',
	isin        TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL,
	currency    TEXT NOT NULL DEFAULT '',
	quantity    REAL NOT NULL,
	price       REAL NOT NULL,
	fee         REAL NOT NULL,
	imported_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(symbol);
CREATE INDEX IF NOT EXISTS idx_transactions_canonical ON transactions(canonical);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);

CREATE TABLE IF NOT EXISTS positions (
	symbol     TEXT PRIMARY KEY,
	isin       TEXT NOT NULL DEFAULT '',
	currency   TEXT NOT NULL DEFAULT '',
	quantity   REAL NOT NULL,
	avg_price  REAL NOT NULL,
	dividends  REAL NOT NULL,
	fees       REAL NOT NULL,
	updated_at TEXT NOT NULL
);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SaveTransactions inserts transactions, skipping content-hash
// duplicates, and returns how many were new. The canonical resolver
// records the identity each transaction was folded into; for rows
// already archived the canonical is refreshed, so merges accepted on a
// later run reach older rows too. A nil resolver archives each
// transaction under its own symbol.
func (s *SQLiteStore) SaveTransactions(ctx context.Context, transactions []model.Transaction, canonical func(model.Transaction) string) (int, error) {
	if canonical == nil {
		canonical = func(t model.Transaction) string { return t.Symbol }
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO transactions (hash, date, symbol, canonical, isin, type, currency, quantity, price, fee, imported_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	refresh, err := tx.PrepareContext(ctx, `
UPDATE transactions SET canonical = ? WHERE hash = ? AND canonical != ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare canonical refresh: %w", err)
	}
	defer func() { _ = refresh.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, t := range transactions {
		resolved := canonical(t)
		res, err := stmt.ExecContext(ctx,
			t.Hash(),
			t.Date.Format("2006-01-02"),
			t.Symbol,
			resolved,
			t.ISIN,
			string(t.Type),
			t.Currency,
			t.Quantity,
			t.Price,
			t.Fee,
			now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction: %w", err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			inserted += int(n)
		}
		if n == 0 {
			if _, err := refresh.ExecContext(ctx, resolved, t.Hash(), resolved); err != nil {
				return 0, fmt.Errorf("failed to refresh canonical: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

// GetTransactions returns archived transactions matching the filter,
// sorted by date with BUY before SELL on ties.
func (s *SQLiteStore) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT date, symbol, isin, type, currency, quantity, price, fee FROM transactions WHERE 1=1`
	var args []any

	if filter.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, filter.Symbol)
	}
	if filter.Canonical != "" {
		query += ` AND canonical = ?`
		args = append(args, filter.Canonical)
	}
	if filter.StartDate != nil {
		query += ` AND date >= ?`
		args = append(args, filter.StartDate.Format("2006-01-02"))
	}
	if filter.EndDate != nil {
		query += ` AND date <= ?`
		args = append(args, filter.EndDate.Format("2006-01-02"))
	}
	query += ` ORDER BY date, type != 'BUY'`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var date, transactionType string
		if err := rows.Scan(&date, &t.Symbol, &t.ISIN, &transactionType, &t.Currency, &t.Quantity, &t.Price, &t.Fee); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored date %q: %w", date, err)
		}
		t.Date = parsed
		t.Type = model.TransactionType(transactionType)
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// SavePositions replaces the stored position snapshot.
func (s *SQLiteStore) SavePositions(ctx context.Context, positions []*model.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("failed to clear positions: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range positions {
		_, err := tx.ExecContext(ctx, `
INSERT INTO positions (symbol, isin, currency, quantity, avg_price, dividends, fees, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Symbol, p.ISIN, p.Currency, p.Quantity, p.AvgPrice, p.Dividends, p.Fees, now)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", p.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit positions: %w", err)
	}
	return nil
}

// GetPositions returns the stored position snapshot ordered by symbol.
func (s *SQLiteStore) GetPositions(ctx context.Context) ([]*model.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT symbol, isin, currency, quantity, avg_price, dividends, fees
FROM positions ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var positions []*model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.Symbol, &p.ISIN, &p.Currency, &p.Quantity, &p.AvgPrice, &p.Dividends, &p.Fees); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reattach archived transactions so realized profit can be
	// computed on loaded snapshots. Snapshots are keyed by canonical
	// symbol, so matching on the archived canonical picks up every
	// alias-labeled row of a merged security.
	for _, p := range positions {
		transactions, err := s.GetTransactions(ctx, service.TransactionFilter{Canonical: p.Symbol})
		if err != nil {
			return nil, err
		}
		p.Transactions = transactions
	}
	return positions, nil
}
