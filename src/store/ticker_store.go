package store

import (
	"database/sql"
	"fmt"
	"time"
)

// TickerStore persists product-name to ticker-symbol resolutions so
// repeated uploads don't hit the search API again.
type TickerStore struct {
	db *sql.DB
}

func NewTickerStore(db *sql.DB) *TickerStore {
	return &TickerStore{db: db}
}

// Get returns the cached symbol for a product name, or ok=false.
func (s *TickerStore) Get(product string) (string, bool, error) {
	var ticker string
	err := s.db.QueryRow(`SELECT ticker FROM tickers WHERE product = ?`, product).Scan(&ticker)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query ticker for product %q: %w", product, err)
	}
	return ticker, ticker != "", nil
}

// Put stores (or replaces) the resolved symbol for a product name.
func (s *TickerStore) Put(product, ticker string) error {
	_, err := s.db.Exec(
		`INSERT INTO tickers (product, ticker, date_added) VALUES (?, ?, ?)
		 ON CONFLICT(product) DO UPDATE SET ticker = excluded.ticker, date_added = excluded.date_added`,
		product, ticker, time.Now().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to store ticker for product %q: %w", product, err)
	}
	return nil
}
