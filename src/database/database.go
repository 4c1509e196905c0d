package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/lotfolio/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the sqlite database and ensures the lookup-cache tables
// exist: resolved ticker symbols, daily price history and EUR/USD rates.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Ensuring database tables", "databasePath", databasePath)
	} else {
		stdlog.Println("Ensuring database tables for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS tickers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product TEXT UNIQUE,
		ticker TEXT,
		date_added TEXT
	);

	CREATE TABLE IF NOT EXISTS stock_data (
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

	CREATE TABLE IF NOT EXISTS eur_usd_exchange (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT UNIQUE,
		exchange_rate REAL,
		date_added TEXT
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}
