package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/username/lotfolio/backend/src/config"
	"github.com/username/lotfolio/backend/src/logger"
	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/parsers"
	"github.com/username/lotfolio/backend/src/processors"
	"github.com/username/lotfolio/backend/src/store"
	"github.com/username/lotfolio/backend/src/utils"
)

// metricsServiceImpl wires the parsers, the lot ledger, valuation and the
// daily aggregator into the upload-to-payload pipeline.
type metricsServiceImpl struct {
	accountParser   *parsers.AccountCSVParser
	portfolioParser *parsers.PortfolioCSVParser
	dividends       *processors.DividendProcessor
	fees            *processors.FeeProcessor
	cashflow        *processors.CashflowProcessor
	aggregator      *processors.DailyAggregator
	valuation       *processors.ValuationEngine
	tickerService   *TickerService
	fxStore         *store.FXStore
	priceStore      *store.PriceStore
	calendar        *utils.TradingCalendar
	fxPolicy        config.FXFallbackPolicy
	now             func() time.Time
}

func NewMetricsService(
	tickerService *TickerService,
	fxStore *store.FXStore,
	priceStore *store.PriceStore,
	calendar *utils.TradingCalendar,
	fxPolicy config.FXFallbackPolicy,
) MetricsService {
	return &metricsServiceImpl{
		accountParser:   parsers.NewAccountCSVParser(),
		portfolioParser: parsers.NewPortfolioCSVParser(),
		dividends:       processors.NewDividendProcessor(),
		fees:            processors.NewFeeProcessor(),
		cashflow:        processors.NewCashflowProcessor(),
		aggregator:      processors.NewDailyAggregator(),
		valuation:       processors.NewValuationEngine(),
		tickerService:   tickerService,
		fxStore:         fxStore,
		priceStore:      priceStore,
		calendar:        calendar,
		fxPolicy:        fxPolicy,
		now:             time.Now,
	}
}

// storePriceHistory adapts the price store plus the security-to-symbol
// mapping to the aggregator's history interface.
type storePriceHistory struct {
	prices  *store.PriceStore
	symbols map[string]string
}

func (s *storePriceHistory) ClosesBetween(security string, start, end time.Time) ([]models.DailyProfitPoint, error) {
	symbol, ok := s.symbols[security]
	if !ok {
		return nil, fmt.Errorf("no ticker resolved for %q", security)
	}
	return s.prices.ClosesBetween(symbol,
		start.Format(utils.ISODateFormat), end.Format(utils.ISODateFormat))
}

func (s *metricsServiceImpl) ComputeMetrics(ctx context.Context, accountFile, portfolioFile io.Reader) (*models.MetricsResult, error) {
	startTime := s.now()

	accountRows, err := s.accountParser.Parse(accountFile)
	if err != nil {
		return nil, fmt.Errorf("%w: account file: %v", ErrParsingFailed, err)
	}
	portfolioRows, err := s.portfolioParser.Parse(portfolioFile)
	if err != nil {
		return nil, fmt.Errorf("%w: portfolio file: %v", ErrParsingFailed, err)
	}

	var warnings []models.Warning

	// Malformed trade rows are skipped, surfaced per row; the rest of the
	// upload still computes.
	events, parseErrs := parsers.ParseTransactionRows(accountRows)
	for _, parseErr := range parseErrs {
		warnings = append(warnings, models.Warning{Reason: parseErr.Error()})
	}

	ledger, ledgerWarnings := s.replayLedger(events)
	warnings = append(warnings, ledgerWarnings...)
	positions := ledger.Positions()

	totalDividends, _ := s.dividends.Process(accountRows)
	totalFees, feeBreakdown := s.fees.Process(accountRows)
	cashflowSeries := s.cashflow.Process(accountRows)

	securities := make([]string, 0, len(positions))
	for security := range positions {
		securities = append(securities, security)
	}
	sort.Strings(securities)

	symbols, resolveWarnings := s.tickerService.ResolveTickers(ctx, securities)
	warnings = append(warnings, resolveWarnings...)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	warnings = append(warnings, s.tickerService.RefreshFXHistory(ctx)...)
	uniqueSymbols := make([]string, 0, len(symbols))
	seen := make(map[string]bool)
	for _, symbol := range symbols {
		if !seen[symbol] {
			seen[symbol] = true
			uniqueSymbols = append(uniqueSymbols, symbol)
		}
	}
	warnings = append(warnings, s.tickerService.RefreshPriceHistory(ctx, uniqueSymbols)...)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	rates, err := s.fxStore.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: loading exchange rates: %v", ErrProcessingFailed, err)
	}
	rateTable := processors.NewRateTable(rates, s.fxPolicy)

	history := &storePriceHistory{prices: s.priceStore, symbols: symbols}
	now := s.now()
	portfolioSeries, aggWarnings, err := s.aggregator.Aggregate(
		positions, ledger.RealizedEvents(), history, rateTable, s.calendar, now)
	if err != nil {
		return nil, fmt.Errorf("%w: daily aggregation: %v", ErrProcessingFailed, err)
	}
	warnings = append(warnings, aggWarnings...)

	portfolioSeries, todayWarnings := s.extendToToday(ctx, portfolioSeries, ledger, symbols, rateTable, now)
	warnings = append(warnings, todayWarnings...)

	portfolioValue, cashBalance := summarizeHoldings(portfolioRows)

	profitLoss := 0.0
	if len(portfolioSeries) > 0 {
		// By definition the cumulative P/L to date, not a separately
		// recomputed total.
		profitLoss = utils.RoundFloat(portfolioSeries[len(portfolioSeries)-1].Value, 2)
	}

	cashflowFilled, portfolioFilled, combined := s.alignSeries(cashflowSeries, portfolioSeries)

	result := &models.MetricsResult{
		TotalDividends:           totalDividends,
		TotalFees:                totalFees,
		FeeBreakdown:             feeBreakdown,
		ProfitLoss:               profitLoss,
		PortfolioValue:           portfolioValue,
		CashBalance:              cashBalance,
		HistoricalPortfolioValue: portfolioFilled,
		HistoricalCashflow:       cashflowFilled,
		CombinedData:             combined,
		// TODO: derive CAGR from the combined equity curve.
		AnnualGrowthRate: 0,
		Warnings:         warnings,
	}
	ensureNonNil(result)

	logger.L.Info("Metrics computed",
		"securities", len(securities),
		"events", len(events),
		"warnings", len(warnings),
		"duration", time.Since(startTime))
	return result, nil
}

// replayLedger replays the event stream in ascending trade-date order.
// An oversell is fatal for that security only: its lots and realized
// events are dropped with a distinct consistency warning, and later
// events for it are ignored.
func (s *metricsServiceImpl) replayLedger(events []models.TransactionEvent) (*processors.LotLedger, []models.Warning) {
	ordered := make([]models.TransactionEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TradeDate.Before(ordered[j].TradeDate)
	})

	ledger := processors.NewLotLedger()
	var warnings []models.Warning
	bad := make(map[string]bool)

	for _, event := range ordered {
		if bad[event.Security] {
			continue
		}
		if err := ledger.Apply(event); err != nil {
			if errors.Is(err, processors.ErrOversell) {
				bad[event.Security] = true
				ledger.Remove(event.Security)
				warnings = append(warnings, models.Warning{
					Security: event.Security,
					Date:     event.TradeDate.Format(utils.ISODateFormat),
					Reason:   fmt.Sprintf("inconsistent transaction history: %v", err),
				})
				continue
			}
			warnings = append(warnings, models.Warning{
				Security: event.Security,
				Reason:   err.Error(),
			})
		}
	}
	return ledger, warnings
}

// extendToToday appends today's point to the series when the stored price
// history does not reach it: cumulative realized gains plus open lots
// marked to the current market price.
func (s *metricsServiceImpl) extendToToday(
	ctx context.Context,
	series []models.DailyProfitPoint,
	ledger *processors.LotLedger,
	symbols map[string]string,
	rateTable *processors.RateTable,
	now time.Time,
) ([]models.DailyProfitPoint, []models.Warning) {
	today := utils.Day(now)
	if !s.calendar.IsTradingDay(today) {
		return series, nil
	}
	todayStr := today.Format(utils.ISODateFormat)
	if len(series) > 0 && series[len(series)-1].Date >= todayStr {
		return series, nil
	}

	openSymbols := make(map[string]string)
	for security, lots := range ledger.Positions() {
		for _, lot := range lots {
			if lot.ClosedDate == nil {
				if symbol, ok := symbols[security]; ok {
					openSymbols[security] = symbol
				}
				break
			}
		}
	}
	if len(openSymbols) == 0 {
		return series, nil
	}

	quotes, warnings := s.tickerService.CurrentQuotes(ctx, openSymbols)
	unrealized, valuationWarnings := s.valuation.ValueOpenLots(ledger.Positions(), quotes, rateTable, today)
	warnings = append(warnings, valuationWarnings...)

	total := 0.0
	for _, profit := range unrealized {
		total += profit
	}
	for _, realized := range ledger.RealizedEvents() {
		total += realized.ProfitPerUnit * realized.Quantity
	}

	series = append(series, models.DailyProfitPoint{
		Date:  todayStr,
		Value: utils.RoundFloat(total, 2),
	})
	return series, warnings
}

// alignSeries reindexes both daily series onto the union date range
// (every calendar day, forward- then back-filled) and sums them into the
// combined equity curve.
func (s *metricsServiceImpl) alignSeries(cashflow, portfolio []models.DailyProfitPoint) (cashflowFilled, portfolioFilled, combined []models.DailyProfitPoint) {
	if len(cashflow) == 0 && len(portfolio) == 0 {
		return nil, nil, nil
	}

	var startStr, endStr string
	for _, series := range [][]models.DailyProfitPoint{cashflow, portfolio} {
		if len(series) == 0 {
			continue
		}
		if startStr == "" || series[0].Date < startStr {
			startStr = series[0].Date
		}
		if endStr == "" || series[len(series)-1].Date > endStr {
			endStr = series[len(series)-1].Date
		}
	}

	start, err := time.Parse(utils.ISODateFormat, startStr)
	if err != nil {
		return cashflow, portfolio, nil
	}
	end, err := time.Parse(utils.ISODateFormat, endStr)
	if err != nil {
		return cashflow, portfolio, nil
	}

	cashflowFilled = processors.ReindexDaily(cashflow, start, end)
	portfolioFilled = processors.ReindexDaily(portfolio, start, end)
	combined = processors.CombineSeries(cashflowFilled, portfolioFilled)
	return cashflowFilled, portfolioFilled, combined
}

// summarizeHoldings computes portfolio and cash balances from the
// holdings export. The EUR value column uses a comma decimal.
func summarizeHoldings(rows []models.PortfolioRow) (portfolioValue, cashBalance float64) {
	var total, cash float64
	for _, row := range rows {
		value, err := strconv.ParseFloat(strings.ReplaceAll(row.ValueEUR, ",", "."), 64)
		if err != nil {
			continue
		}
		total += value
		if strings.Contains(strings.ToLower(row.Product), "cash") {
			cash += value
		}
	}
	return utils.RoundFloat(total-cash, 2), utils.RoundFloat(cash, 2)
}

func ensureNonNil(result *models.MetricsResult) {
	if result.HistoricalPortfolioValue == nil {
		result.HistoricalPortfolioValue = []models.DailyProfitPoint{}
	}
	if result.HistoricalCashflow == nil {
		result.HistoricalCashflow = []models.DailyProfitPoint{}
	}
	if result.CombinedData == nil {
		result.CombinedData = []models.DailyProfitPoint{}
	}
	if result.Warnings == nil {
		result.Warnings = []models.Warning{}
	}
	if result.FeeBreakdown == nil {
		result.FeeBreakdown = map[string]float64{}
	}
}
