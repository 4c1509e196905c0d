package processors

import (
	"math"
	"strconv"
	"strings"

	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/parsers"
	"github.com/username/lotfolio/backend/src/utils"
)

// Row kinds that make up a dividend payment group.
const (
	descDividend           = "Dividendo"
	descDividendRetention  = "Retención del dividendo"
	descCurrencyWithdrawal = "Retirada Cambio de Divisa"
)

// DividendProcessor nets dividend payments out of account rows. Rows are
// grouped by (value date, product); a group's gross dividend minus the
// withholding retention gives the net amount. USD groups are converted to
// EUR with the rate carried by the group's currency-withdrawal row.
type DividendProcessor struct{}

func NewDividendProcessor() *DividendProcessor {
	return &DividendProcessor{}
}

type dividendGroup struct {
	product    string
	valueDate  string
	currency   string
	gross      float64
	retention  float64
	conversion float64
	hasGross   bool
}

// Process returns the total net dividends in EUR plus per-group details.
func (p *DividendProcessor) Process(rows []models.AccountRow) (float64, []models.DividendDetail) {
	groups := make(map[string]*dividendGroup)
	var order []string

	// The export puts the EUR/USD rate only on the row nearest each USD
	// movement; a withdrawal row may carry an empty Tipo of its own.
	rows = parsers.ForwardFillFXRates(rows)

	for _, row := range rows {
		// Dividend bookings carry no order ID; trade rows do.
		if row.OrderID != "" {
			continue
		}
		if row.Description != descDividend &&
			row.Description != descDividendRetention &&
			row.Description != descCurrencyWithdrawal {
			continue
		}
		currency := row.BalanceCurrency
		if currency == "EUR" && row.Product == "" {
			continue
		}
		if currency != "EUR" && currency != "USD" {
			continue
		}

		key := currency + "|" + row.ValueDate + "|" + row.Product
		group, ok := groups[key]
		if !ok {
			group = &dividendGroup{product: row.Product, valueDate: row.ValueDate, currency: currency}
			groups[key] = group
			order = append(order, key)
		}

		switch row.Description {
		case descDividend:
			if !group.hasGross {
				group.gross = cleanAmount(row.Amount)
				group.hasGross = true
			}
		case descDividendRetention:
			if group.retention == 0 {
				group.retention = math.Abs(cleanAmount(row.Amount))
			}
		case descCurrencyWithdrawal:
			if group.conversion == 0 {
				if rate, err := strconv.ParseFloat(strings.ReplaceAll(row.FXRate, ",", "."), 64); err == nil {
					group.conversion = rate
				}
			}
		}
	}

	var total float64
	var details []models.DividendDetail
	for _, key := range order {
		group := groups[key]
		// Retention or conversion rows without a dividend row are noise.
		if !group.hasGross {
			continue
		}

		net := group.gross - group.retention
		if group.currency == "USD" {
			rate := group.conversion
			if rate == 0 {
				rate = 1
			}
			net = net * rate
		}

		total += net
		details = append(details, models.DividendDetail{
			Product:   group.product,
			ValueDate: group.valueDate,
			Gross:     group.gross,
			Retention: group.retention,
			Net:       utils.RoundFloat(net, 2),
			Currency:  "EUR",
		})
	}

	return utils.RoundFloat(total, 2), details
}
