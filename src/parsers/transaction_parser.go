package parsers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/utils"
)

// ErrMalformedDescription marks a trade row whose description could not be
// parsed. Quantity/price are never silently defaulted to zero; the caller
// decides whether to skip the row or abort the whole upload.
var ErrMalformedDescription = errors.New("malformed transaction description")

const (
	buyMarker  = "Compra"
	sellMarker = "Venta"
)

// ParseTransactionRow turns one account row into a typed buy/sell event.
// Trade descriptions look like "Compra 2 Visa Inc@278,5 USD": quantity
// after the verb, price between the '@' and the currency code, comma as
// decimal separator and dot as thousands separator. USD prices are
// normalized to EUR at parse time by dividing by the row's FX rate (Tipo).
// Rows that are not trades produce (nil, nil).
func ParseTransactionRow(row models.AccountRow) (*models.TransactionEvent, error) {
	var kind models.TransactionKind
	switch {
	case strings.Contains(row.Description, buyMarker):
		kind = models.Buy
	case strings.Contains(row.Description, sellMarker):
		kind = models.Sell
	default:
		return nil, nil
	}
	// Trades always carry an order ID; currency conversions and fees that
	// happen to mention a trade verb do not.
	if row.OrderID == "" {
		return nil, nil
	}

	parts := strings.Split(row.Description, "@")
	if len(parts) < 2 {
		return nil, rowError(row, "missing '@' separator")
	}

	verbFields := strings.Fields(parts[0])
	if len(verbFields) < 2 {
		return nil, rowError(row, "missing quantity after verb")
	}
	quantityStr := strings.ReplaceAll(verbFields[1], ".", "")
	quantityStr = strings.ReplaceAll(quantityStr, ",", ".")
	quantity, err := strconv.ParseFloat(quantityStr, 64)
	if err != nil || quantity <= 0 {
		return nil, rowError(row, fmt.Sprintf("invalid quantity %q", verbFields[1]))
	}

	priceFields := strings.Fields(parts[len(parts)-1])
	if len(priceFields) < 1 {
		return nil, rowError(row, "missing price after '@'")
	}
	// "1.278,50" -> "1278.50"
	priceStr := strings.ReplaceAll(priceFields[0], ".", "")
	priceStr = strings.ReplaceAll(priceStr, ",", ".")
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return nil, rowError(row, fmt.Sprintf("invalid price %q", priceFields[0]))
	}

	if row.Currency == "USD" {
		rate, err := strconv.ParseFloat(strings.ReplaceAll(row.FXRate, ",", "."), 64)
		if err != nil || rate <= 0 {
			return nil, rowError(row, fmt.Sprintf("invalid FX rate %q for USD trade", row.FXRate))
		}
		price = price / rate
	}

	tradeDate, err := utils.ParseDate(row.Date)
	if err != nil {
		return nil, rowError(row, err.Error())
	}

	security := strings.TrimSpace(row.Product)
	if security == "" {
		return nil, rowError(row, "missing product name")
	}

	return &models.TransactionEvent{
		Security:  security,
		Kind:      kind,
		Quantity:  quantity,
		UnitPrice: price,
		Currency:  row.Currency,
		TradeDate: tradeDate,
	}, nil
}

// ParseTransactionRows extracts the event stream from account rows. Source
// rows arrive newest-first, so the result is reversed into ascending
// trade-date order for ledger replay. Malformed trade rows are collected
// as errors with row identity; well-formed rows still produce events.
func ParseTransactionRows(rows []models.AccountRow) ([]models.TransactionEvent, []error) {
	filled := ForwardFillFXRates(rows)

	var events []models.TransactionEvent
	var errs []error
	for i := len(filled) - 1; i >= 0; i-- {
		event, err := ParseTransactionRow(filled[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if event != nil {
			events = append(events, *event)
		}
	}
	return events, errs
}

// ForwardFillFXRates fills the empty Tipo of USD rows from the nearest
// preceding USD row that has one. Broker exports put the EUR/USD rate only
// on the currency-conversion row next to each USD trade.
func ForwardFillFXRates(rows []models.AccountRow) []models.AccountRow {
	filled := make([]models.AccountRow, len(rows))
	copy(filled, rows)

	lastRate := ""
	for i := range filled {
		if filled[i].Currency != "USD" && filled[i].BalanceCurrency != "USD" {
			continue
		}
		if strings.TrimSpace(filled[i].FXRate) != "" {
			lastRate = filled[i].FXRate
			continue
		}
		filled[i].FXRate = lastRate
	}
	return filled
}

func rowError(row models.AccountRow, detail string) error {
	return fmt.Errorf("row (order %q, date %s): %w: %s", row.OrderID, row.Date, ErrMalformedDescription, detail)
}
