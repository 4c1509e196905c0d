package services

import (
	"context"
	"io"

	"github.com/username/lotfolio/backend/src/models"
)

// MarketDataService is the external price/ticker capability surface.
type MarketDataService interface {
	// SearchTicker resolves a (normalized) product name to a ticker symbol.
	SearchTicker(ctx context.Context, query string) (string, error)
	// CurrentQuote returns the latest market price and its currency.
	CurrentQuote(ctx context.Context, symbol string) (float64, string, error)
	// DailyHistory returns split-adjusted daily candles from startDate
	// ("2006-01-02") to today, ordered by date ascending.
	DailyHistory(ctx context.Context, symbol, startDate string) ([]models.DailyPrice, error)
}

// MetricsService computes the full metrics payload for one upload.
type MetricsService interface {
	ComputeMetrics(ctx context.Context, accountFile, portfolioFile io.Reader) (*models.MetricsResult, error)
}
