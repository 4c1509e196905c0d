package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/lotfolio/backend/src/models"
)

func TestParseTransactionRowBuyUSD(t *testing.T) {
	row := models.AccountRow{
		Date:        "01-03-2023",
		Product:     "Visa Inc",
		Description: "Compra 2 Visa Inc@278,5 USD",
		FXRate:      "1,0514",
		Currency:    "USD",
		OrderID:     "b8a9-11ed",
	}

	event, err := ParseTransactionRow(row)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, "Visa Inc", event.Security)
	assert.Equal(t, models.Buy, event.Kind)
	assert.InDelta(t, 2, event.Quantity, 1e-9)
	assert.InDelta(t, 278.5/1.0514, event.UnitPrice, 1e-9)
	assert.Equal(t, "USD", event.Currency)
	assert.Equal(t, "2023-03-01", event.TradeDate.Format("2006-01-02"))
}

func TestParseTransactionRowSellEUR(t *testing.T) {
	row := models.AccountRow{
		Date:        "15-06-2023",
		Product:     "Iberdrola",
		Description: "Venta 10 Iberdrola@10,5 EUR",
		Currency:    "EUR",
		OrderID:     "c1d2-33ab",
	}

	event, err := ParseTransactionRow(row)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, models.Sell, event.Kind)
	assert.InDelta(t, 10, event.Quantity, 1e-9)
	assert.InDelta(t, 10.5, event.UnitPrice, 1e-9)
}

func TestParseTransactionRowThousandsSeparators(t *testing.T) {
	row := models.AccountRow{
		Date:        "15-06-2023",
		Product:     "Berkshire Hathaway",
		Description: "Compra 1.000 Berkshire Hathaway@1.278,50 EUR",
		Currency:    "EUR",
		OrderID:     "d4e5-66cd",
	}

	event, err := ParseTransactionRow(row)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.InDelta(t, 1000, event.Quantity, 1e-9)
	assert.InDelta(t, 1278.5, event.UnitPrice, 1e-9)
}

func TestParseTransactionRowNonTrade(t *testing.T) {
	event, err := ParseTransactionRow(models.AccountRow{Description: "Dividendo"})
	require.NoError(t, err)
	assert.Nil(t, event)

	// A currency conversion mentioning the verb has no order ID.
	event, err = ParseTransactionRow(models.AccountRow{
		Description: "Compra Cambio de Divisa", OrderID: "",
	})
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParseTransactionRowMalformed(t *testing.T) {
	tests := []struct {
		name string
		row  models.AccountRow
	}{
		{"missing separator", models.AccountRow{
			Date: "01-03-2023", Product: "Visa Inc",
			Description: "Compra 2 Visa Inc 278,5 USD", OrderID: "x"}},
		{"missing quantity", models.AccountRow{
			Date: "01-03-2023", Product: "Visa Inc",
			Description: "Compra@278,5 USD", OrderID: "x"}},
		{"zero quantity", models.AccountRow{
			Date: "01-03-2023", Product: "Visa Inc",
			Description: "Compra 0 Visa Inc@278,5 USD", OrderID: "x"}},
		{"missing fx rate for usd", models.AccountRow{
			Date: "01-03-2023", Product: "Visa Inc", Currency: "USD",
			Description: "Compra 2 Visa Inc@278,5 USD", OrderID: "x"}},
		{"bad date", models.AccountRow{
			Date: "2023/03/01", Product: "Visa Inc",
			Description: "Compra 2 Visa Inc@278,5 EUR", OrderID: "x"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTransactionRow(tc.row)
			assert.ErrorIs(t, err, ErrMalformedDescription)
		})
	}
}

func TestParseTransactionRowsReversesToAscending(t *testing.T) {
	// Export order is newest-first.
	rows := []models.AccountRow{
		{Date: "10-03-2023", Product: "Visa Inc", Currency: "EUR",
			Description: "Venta 1 Visa Inc@300 EUR", OrderID: "b"},
		{Date: "01-03-2023", Product: "Visa Inc", Currency: "EUR",
			Description: "Compra 2 Visa Inc@250 EUR", OrderID: "a"},
	}

	events, errs := ParseTransactionRows(rows)
	assert.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, models.Buy, events[0].Kind)
	assert.Equal(t, models.Sell, events[1].Kind)
	assert.True(t, events[0].TradeDate.Before(events[1].TradeDate))
}

func TestParseTransactionRowsCollectsRowErrors(t *testing.T) {
	rows := []models.AccountRow{
		{Date: "10-03-2023", Product: "Visa Inc", Currency: "EUR",
			Description: "Venta 1 Visa Inc 300 EUR", OrderID: "b"}, // malformed
		{Date: "01-03-2023", Product: "Visa Inc", Currency: "EUR",
			Description: "Compra 2 Visa Inc@250 EUR", OrderID: "a"},
	}

	events, errs := ParseTransactionRows(rows)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMalformedDescription)
	assert.Contains(t, errs[0].Error(), `"b"`)
	require.Len(t, events, 1)
	assert.Equal(t, models.Buy, events[0].Kind)
}

func TestForwardFillFXRates(t *testing.T) {
	rows := []models.AccountRow{
		{Currency: "USD", FXRate: "1,05"},
		{Currency: "USD", FXRate: ""},
		{Currency: "EUR", FXRate: ""},
		{BalanceCurrency: "USD", FXRate: ""},
	}

	filled := ForwardFillFXRates(rows)

	assert.Equal(t, "1,05", filled[0].FXRate)
	assert.Equal(t, "1,05", filled[1].FXRate)
	assert.Equal(t, "", filled[2].FXRate) // EUR rows stay untouched
	assert.Equal(t, "1,05", filled[3].FXRate)
}
