package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/utils"
)

// PriceHistorySource supplies historical daily closes for a security, in
// the security's native currency, ordered by date ascending.
type PriceHistorySource interface {
	ClosesBetween(security string, start, end time.Time) ([]models.DailyProfitPoint, error)
}

// CalendarFilter decides which dates belong in a daily market series.
type CalendarFilter interface {
	IsTradingDay(t time.Time) bool
}

// DailyAggregator projects lot lifetimes onto a daily calendar and sums
// realized plus unrealized profit/loss per day across all securities.
type DailyAggregator struct{}

func NewDailyAggregator() *DailyAggregator {
	return &DailyAggregator{}
}

// Aggregate produces the cumulative daily P/L series: for each day, the
// sum over all lots open on that day of (close - cost) * open quantity,
// plus all gains realized up to that day. Weekends and holidays are
// omitted from the output entirely, not zero-filled. Values are rounded
// to 2 decimals only at emission; intermediate sums keep full precision.
func (a *DailyAggregator) Aggregate(
	positions map[string][]*models.Lot,
	realized []models.RealizedEvent,
	prices PriceHistorySource,
	fx *RateTable,
	cal CalendarFilter,
	now time.Time,
) ([]models.DailyProfitPoint, []models.Warning, error) {
	totals := make(map[string]float64)
	var warnings []models.Warning

	securities := make([]string, 0, len(positions))
	for security := range positions {
		securities = append(securities, security)
	}
	sort.Strings(securities)

	for _, security := range securities {
		degradedDays := make(map[string]bool)

		for _, lot := range positions[security] {
			closes, err := prices.ClosesBetween(security, lot.OpenedDate, lot.LifetimeEnd(now))
			if err != nil {
				warnings = append(warnings, models.Warning{
					Security: security,
					Reason:   fmt.Sprintf("price history lookup failed: %v", err),
				})
				break
			}
			if len(closes) == 0 {
				warnings = append(warnings, models.Warning{
					Security: security,
					Reason:   "no price history available; security excluded from daily series",
				})
				break
			}

			for _, point := range closes {
				day, err := time.Parse(utils.ISODateFormat, point.Date)
				if err != nil {
					continue
				}
				closeEUR, degraded := fx.ToEUR(point.Value, lot.Currency, day)
				if degraded {
					degradedDays[point.Date] = true
				}
				totals[point.Date] += (closeEUR - lot.CostPerUnit) * lot.OpenQuantityOn(day)
			}
		}

		if len(degradedDays) > 0 {
			warnings = append(warnings, models.Warning{
				Security: security,
				Reason:   fmt.Sprintf("EUR/USD rate missing on %d day(s); fallback conversion applied", len(degradedDays)),
			})
		}
	}

	if len(totals) == 0 {
		return nil, warnings, nil
	}

	dates := make([]string, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	// Realized gains accumulate: every day carries all profit locked in on
	// or before it.
	ordered := make([]models.RealizedEvent, len(realized))
	copy(ordered, realized)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RealizationDate.Before(ordered[j].RealizationDate)
	})

	var series []models.DailyProfitPoint
	cumRealized := 0.0
	next := 0
	for _, dateStr := range dates {
		day, err := time.Parse(utils.ISODateFormat, dateStr)
		if err != nil {
			continue
		}
		for next < len(ordered) && !ordered[next].RealizationDate.After(day) {
			cumRealized += ordered[next].ProfitPerUnit * ordered[next].Quantity
			next++
		}
		if !cal.IsTradingDay(day) {
			continue
		}
		series = append(series, models.DailyProfitPoint{
			Date:  dateStr,
			Value: utils.RoundFloat(totals[dateStr]+cumRealized, 2),
		})
	}

	return series, warnings, nil
}
