package store

import (
	"database/sql"
	"fmt"

	"github.com/username/lotfolio/backend/src/models"
)

// PriceStore persists daily OHLC history per ticker so only missing days
// are fetched from the network on later uploads.
type PriceStore struct {
	db *sql.DB
}

func NewPriceStore(db *sql.DB) *PriceStore {
	return &PriceStore{db: db}
}

// LatestDate returns the most recent stored date for a ticker ("" if none).
func (s *PriceStore) LatestDate(ticker string) (string, error) {
	var date sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM stock_data WHERE ticker = ?`, ticker).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest date for %s: %w", ticker, err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// Insert appends daily price rows, ignoring days already stored.
func (s *PriceStore) Insert(prices []models.DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin price insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO stock_data (date, ticker, open, high, low, close, volume, dividends, stock_splits)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare price insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.Exec(p.Date, p.Ticker, p.Open, p.High, p.Low, p.Close, p.Volume, p.Dividends, p.Splits); err != nil {
			return fmt.Errorf("failed to insert price row %s/%s: %w", p.Ticker, p.Date, err)
		}
	}
	return tx.Commit()
}

// ClosesBetween returns (date, close) pairs for a ticker in [start, end],
// ordered by date ascending. Dates are "2006-01-02" strings.
func (s *PriceStore) ClosesBetween(ticker, start, end string) ([]models.DailyProfitPoint, error) {
	rows, err := s.db.Query(
		`SELECT date, close FROM stock_data WHERE ticker = ? AND date BETWEEN ? AND ? ORDER BY date`,
		ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", ticker, err)
	}
	defer rows.Close()

	var closes []models.DailyProfitPoint
	for rows.Next() {
		var p models.DailyProfitPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan close row for %s: %w", ticker, err)
		}
		closes = append(closes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closes for %s: %w", ticker, err)
	}
	return closes, nil
}
