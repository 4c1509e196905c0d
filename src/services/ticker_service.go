package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/lotfolio/backend/src/logger"
	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/processors"
	"github.com/username/lotfolio/backend/src/store"
	"github.com/username/lotfolio/backend/src/utils"
	"golang.org/x/sync/errgroup"
)

const fxSymbol = "EURUSD=X"

// TickerService resolves product names to ticker symbols and keeps the
// local price/FX history fresh. Lookups for distinct securities are
// independent, so they fan out concurrently with a bounded limit and a
// per-task timeout; one security failing never aborts the others. Results
// are merged back under a lock after the gather, and store writes happen
// once per request, after the fan-out, to keep a read-at-start /
// write-at-end discipline on the shared cache.
type TickerService struct {
	market       MarketDataService
	tickers      *store.TickerStore
	prices       *store.PriceStore
	fx           *store.FXStore
	memCache     *cache.Cache
	concurrency  int
	taskTimeout  time.Duration
	historyStart string
}

func NewTickerService(
	market MarketDataService,
	tickers *store.TickerStore,
	prices *store.PriceStore,
	fx *store.FXStore,
	memCache *cache.Cache,
	concurrency int,
	taskTimeout time.Duration,
	historyStart string,
) *TickerService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TickerService{
		market:       market,
		tickers:      tickers,
		prices:       prices,
		fx:           fx,
		memCache:     memCache,
		concurrency:  concurrency,
		taskTimeout:  taskTimeout,
		historyStart: historyStart,
	}
}

// NormalizeProductName strips broker decorations from a product name
// before the symbol search.
func NormalizeProductName(product string) string {
	name := strings.ToLower(product)
	for _, junk := range []string{"adr on ", "class c", "class a", "class b", ".com"} {
		name = strings.ReplaceAll(name, junk, "")
	}
	return strings.TrimSpace(name)
}

// ResolveTickers maps each security to a ticker symbol, consulting the
// in-memory cache, then the database, then the search API. Securities
// that cannot be resolved are reported as warnings and omitted from the
// result.
func (s *TickerService) ResolveTickers(ctx context.Context, securities []string) (map[string]string, []models.Warning) {
	symbols := make(map[string]string)
	var warnings []models.Warning

	var toFetch []string
	for _, security := range securities {
		if cached, found := s.memCache.Get("ticker:" + security); found {
			symbols[security] = cached.(string)
			continue
		}
		symbol, found, err := s.tickers.Get(security)
		if err != nil {
			logger.L.Warn("Ticker store lookup failed", "security", security, "error", err)
		}
		if found {
			symbols[security] = symbol
			s.memCache.Set("ticker:"+security, symbol, cache.DefaultExpiration)
			continue
		}
		toFetch = append(toFetch, security)
	}

	if len(toFetch) == 0 {
		return symbols, warnings
	}

	var mu sync.Mutex
	resolved := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, security := range toFetch {
		security := security
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gctx, s.taskTimeout)
			defer cancel()

			symbol, err := s.market.SearchTicker(taskCtx, NormalizeProductName(security))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, models.Warning{
					Security: security,
					Reason:   fmt.Sprintf("ticker resolution failed: %v", err),
				})
				return nil // partial failure must not abort the others
			}
			resolved[security] = symbol
			return nil
		})
	}
	g.Wait()

	// Single write pass after the gather.
	for security, symbol := range resolved {
		symbols[security] = symbol
		s.memCache.Set("ticker:"+security, symbol, cache.DefaultExpiration)
		if err := s.tickers.Put(security, symbol); err != nil {
			logger.L.Warn("Failed to persist resolved ticker", "security", security, "error", err)
		}
	}

	return symbols, warnings
}

// RefreshPriceHistory brings the stored daily history of each symbol up
// to date, fetching only the span after the latest stored date.
func (s *TickerService) RefreshPriceHistory(ctx context.Context, symbols []string) []models.Warning {
	var mu sync.Mutex
	var warnings []models.Warning
	fetched := make(map[string][]models.DailyPrice)

	today := time.Now().UTC().Format(utils.ISODateFormat)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, symbol := range symbols {
		symbol := symbol
		latest, err := s.prices.LatestDate(symbol)
		if err != nil {
			logger.L.Warn("Latest price date lookup failed", "symbol", symbol, "error", err)
			latest = ""
		}
		if latest >= today {
			continue // already up to date
		}

		start := s.historyStart
		if latest != "" {
			start = latest // re-fetch from the last stored day, filter below
		}

		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gctx, s.taskTimeout)
			defer cancel()

			prices, err := s.market.DailyHistory(taskCtx, symbol, start)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, models.Warning{
					Security: symbol,
					Reason:   fmt.Sprintf("price history fetch failed: %v", err),
				})
				return nil
			}
			var fresh []models.DailyPrice
			for _, p := range prices {
				if latest == "" || p.Date > latest {
					fresh = append(fresh, p)
				}
			}
			fetched[symbol] = fresh
			return nil
		})
	}
	g.Wait()

	for symbol, prices := range fetched {
		if err := s.prices.Insert(prices); err != nil {
			warnings = append(warnings, models.Warning{
				Security: symbol,
				Reason:   fmt.Sprintf("price history store failed: %v", err),
			})
			continue
		}
		if len(prices) > 0 {
			logger.L.Info("Stored new price rows", "symbol", symbol, "rows", len(prices))
		}
	}

	return warnings
}

// RefreshFXHistory brings the stored EUR/USD daily rates up to date.
func (s *TickerService) RefreshFXHistory(ctx context.Context) []models.Warning {
	latest, err := s.fx.LatestDate()
	if err != nil {
		logger.L.Warn("Latest FX date lookup failed", "error", err)
		latest = ""
	}
	today := time.Now().UTC().Format(utils.ISODateFormat)
	if latest >= today {
		return nil
	}

	start := s.historyStart
	if latest != "" {
		start = latest
	}

	taskCtx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	defer cancel()

	rates, err := s.market.DailyHistory(taskCtx, fxSymbol, start)
	if err != nil {
		return []models.Warning{{Reason: fmt.Sprintf("EUR/USD rate history fetch failed: %v", err)}}
	}

	var warnings []models.Warning
	for _, r := range rates {
		if latest != "" && r.Date <= latest {
			continue
		}
		if err := s.fx.Insert(r.Date, r.Close); err != nil {
			warnings = append(warnings, models.Warning{
				Date:   r.Date,
				Reason: fmt.Sprintf("EUR/USD rate store failed: %v", err),
			})
		}
	}
	return warnings
}

// CurrentQuotes fetches today's market price for each security, fanning
// out per symbol. Quotes are cached in memory for the day. Cache hits are
// collected before any fetcher starts; the quotes map is never touched
// from two goroutines at once.
func (s *TickerService) CurrentQuotes(ctx context.Context, symbols map[string]string) (map[string]processors.PriceQuote, []models.Warning) {
	quotes := make(map[string]processors.PriceQuote)
	var warnings []models.Warning

	today := time.Now().UTC().Format(utils.ISODateFormat)

	toFetch := make(map[string]string)
	for security, symbol := range symbols {
		if cached, found := s.memCache.Get("quote:" + today + ":" + symbol); found {
			quotes[security] = cached.(processors.PriceQuote)
			continue
		}
		toFetch[security] = symbol
	}

	if len(toFetch) == 0 {
		return quotes, warnings
	}

	var mu sync.Mutex
	fetched := make(map[string]processors.PriceQuote)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for security, symbol := range toFetch {
		security, symbol := security, symbol
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gctx, s.taskTimeout)
			defer cancel()

			price, currency, err := s.market.CurrentQuote(taskCtx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, models.Warning{
					Security: security,
					Reason:   fmt.Sprintf("current price fetch failed: %v", err),
				})
				return nil
			}
			fetched[security] = processors.PriceQuote{Price: price, Currency: currency}
			return nil
		})
	}
	g.Wait()

	// Single write pass after the gather.
	for security, quote := range fetched {
		quotes[security] = quote
		s.memCache.Set("quote:"+today+":"+toFetch[security], quote, cache.DefaultExpiration)
	}

	return quotes, warnings
}
