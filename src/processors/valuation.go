package processors

import (
	"fmt"
	"time"

	"github.com/username/lotfolio/backend/src/models"
)

// PriceQuote is a market price in the security's native currency.
type PriceQuote struct {
	Price    float64
	Currency string
}

// ValuationEngine marks open lots to market. Currency conversion happens
// exactly once, at price-lookup time; lot cost bases are already EUR.
type ValuationEngine struct{}

func NewValuationEngine() *ValuationEngine {
	return &ValuationEngine{}
}

// ValueOpenLots computes the unrealized EUR profit per security for every
// lot still open as of the valuation date. Securities without a quote are
// excluded and flagged with a warning, never treated as zero profit.
func (v *ValuationEngine) ValueOpenLots(
	positions map[string][]*models.Lot,
	quotes map[string]PriceQuote,
	fx *RateTable,
	asOf time.Time,
) (map[string]float64, []models.Warning) {
	unrealized := make(map[string]float64)
	var warnings []models.Warning

	for security, lots := range positions {
		var openQty float64
		for _, lot := range lots {
			openQty += lot.Quantity
		}
		if openQty <= qtyEpsilon {
			continue
		}

		quote, ok := quotes[security]
		if !ok {
			warnings = append(warnings, models.Warning{
				Security: security,
				Date:     asOf.Format("2006-01-02"),
				Reason:   "no market price available; security excluded from valuation",
			})
			continue
		}

		priceEUR, degraded := fx.ToEUR(quote.Price, quote.Currency, asOf)
		if degraded {
			warnings = append(warnings, models.Warning{
				Security: security,
				Date:     asOf.Format("2006-01-02"),
				Reason:   fmt.Sprintf("EUR/USD rate missing for %s; fallback conversion applied", asOf.Format("2006-01-02")),
			})
		}

		for _, lot := range lots {
			if lot.Quantity <= qtyEpsilon {
				continue
			}
			unrealized[security] += (priceEUR - lot.CostPerUnit) * lot.Quantity
		}
	}

	return unrealized, warnings
}
