package processors

import (
	"sort"
	"time"

	"github.com/username/lotfolio/backend/src/config"
	"github.com/username/lotfolio/backend/src/utils"
)

// RateTable answers EUR/USD rate lookups by date, with an explicit policy
// for dates that have no stored rate. Prices quoted in USD are converted
// to EUR by dividing by the rate.
type RateTable struct {
	rates  map[string]float64
	dates  []string // sorted, for last-known fallback
	policy config.FXFallbackPolicy
}

func NewRateTable(rates map[string]float64, policy config.FXFallbackPolicy) *RateTable {
	dates := make([]string, 0, len(rates))
	for d := range rates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return &RateTable{rates: rates, dates: dates, policy: policy}
}

// RateOn returns the exact rate for a date, ok=false when missing.
func (t *RateTable) RateOn(date time.Time) (float64, bool) {
	rate, ok := t.rates[date.Format(utils.ISODateFormat)]
	return rate, ok
}

// ToEUR converts a price in the given currency to EUR for a date. The
// degraded flag is true when no rate existed for the date and the fallback
// policy was applied, so callers can mark the result lower-confidence.
func (t *RateTable) ToEUR(price float64, currency string, date time.Time) (converted float64, degraded bool) {
	if currency == "EUR" || currency == "" {
		return price, false
	}

	if rate, ok := t.RateOn(date); ok && rate > 0 {
		return price / rate, false
	}

	if t.policy == config.FXFallbackLastKnown {
		if rate, ok := t.lastKnownBefore(date); ok {
			return price / rate, true
		}
	}
	// Unity fallback: leave the price unconverted.
	return price, true
}

func (t *RateTable) lastKnownBefore(date time.Time) (float64, bool) {
	key := date.Format(utils.ISODateFormat)
	// First date >= key, then step back.
	i := sort.SearchStrings(t.dates, key)
	for i--; i >= 0; i-- {
		if rate := t.rates[t.dates[i]]; rate > 0 {
			return rate, true
		}
	}
	return 0, false
}
