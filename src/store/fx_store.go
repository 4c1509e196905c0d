package store

import (
	"database/sql"
	"fmt"
	"time"
)

// FXStore persists the EUR/USD daily exchange rate history.
type FXStore struct {
	db *sql.DB
}

func NewFXStore(db *sql.DB) *FXStore {
	return &FXStore{db: db}
}

// LatestDate returns the most recent stored rate date ("" if none).
func (s *FXStore) LatestDate() (string, error) {
	var date sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM eur_usd_exchange`).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest exchange rate date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// Insert stores one rate per date, skipping dates already present.
func (s *FXStore) Insert(date string, rate float64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO eur_usd_exchange (date, exchange_rate, date_added) VALUES (?, ?, ?)`,
		date, rate, time.Now().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to insert exchange rate for %s: %w", date, err)
	}
	return nil
}

// LoadAll returns every stored rate keyed by "2006-01-02" date.
func (s *FXStore) LoadAll() (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT date, exchange_rate FROM eur_usd_exchange`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var date string
		var rate float64
		if err := rows.Scan(&date, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate row: %w", err)
		}
		rates[date] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rates: %w", err)
	}
	return rates, nil
}
