package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/lotfolio/backend/src/models"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE tickers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	product TEXT UNIQUE,
	ticker TEXT,
	date_added TEXT
);
CREATE TABLE stock_data (
	date TEXT,
	ticker TEXT,
	open REAL,
	high REAL,
	low REAL,
	close REAL,
	volume INTEGER,
	dividends REAL,
	stock_splits REAL,
	PRIMARY KEY (date, ticker)
);
CREATE TABLE eur_usd_exchange (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT UNIQUE,
	exchange_rate REAL,
	date_added TEXT
);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func TestTickerStoreRoundtrip(t *testing.T) {
	store := NewTickerStore(newTestDB(t))

	_, found, err := store.Get("Visa Inc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put("Visa Inc", "V"))
	ticker, found, err := store.Get("Visa Inc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "V", ticker)

	// Re-resolving the same product replaces the symbol.
	require.NoError(t, store.Put("Visa Inc", "V2"))
	ticker, found, err = store.Get("Visa Inc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "V2", ticker)
}

func TestPriceStoreInsertAndQuery(t *testing.T) {
	store := NewPriceStore(newTestDB(t))

	latest, err := store.LatestDate("V")
	require.NoError(t, err)
	assert.Empty(t, latest)

	prices := []models.DailyPrice{
		{Date: "2023-03-01", Ticker: "V", Close: 220.5, Splits: 1},
		{Date: "2023-03-02", Ticker: "V", Close: 222.0, Splits: 1},
		{Date: "2023-03-03", Ticker: "V", Close: 225.1, Splits: 1},
		{Date: "2023-03-01", Ticker: "ASML", Close: 600.0, Splits: 1},
	}
	require.NoError(t, store.Insert(prices))

	// Inserting an overlapping batch leaves the stored rows alone.
	require.NoError(t, store.Insert([]models.DailyPrice{
		{Date: "2023-03-01", Ticker: "V", Close: 999, Splits: 1},
	}))

	latest, err = store.LatestDate("V")
	require.NoError(t, err)
	assert.Equal(t, "2023-03-03", latest)

	closes, err := store.ClosesBetween("V", "2023-03-01", "2023-03-02")
	require.NoError(t, err)
	require.Len(t, closes, 2)
	assert.Equal(t, models.DailyProfitPoint{Date: "2023-03-01", Value: 220.5}, closes[0])
	assert.Equal(t, models.DailyProfitPoint{Date: "2023-03-02", Value: 222.0}, closes[1])
}

func TestPriceStoreInsertEmpty(t *testing.T) {
	store := NewPriceStore(newTestDB(t))
	assert.NoError(t, store.Insert(nil))
}

func TestFXStoreRoundtrip(t *testing.T) {
	store := NewFXStore(newTestDB(t))

	latest, err := store.LatestDate()
	require.NoError(t, err)
	assert.Empty(t, latest)

	require.NoError(t, store.Insert("2023-03-01", 1.06))
	require.NoError(t, store.Insert("2023-03-02", 1.07))
	// Duplicate dates are ignored, first value wins.
	require.NoError(t, store.Insert("2023-03-02", 9.99))

	latest, err = store.LatestDate()
	require.NoError(t, err)
	assert.Equal(t, "2023-03-02", latest)

	rates, err := store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"2023-03-01": 1.06, "2023-03-02": 1.07}, rates)
}
