package models

import "time"

// AccountRow is a single row from the account-activity CSV export.
// Columns follow the broker's Spanish-locale layout: Fecha, Hora,
// Fecha valor, Producto, ISIN, Descripción, Tipo, Variación, amount,
// Saldo, balance, ID Orden.
type AccountRow struct {
	Date            string `json:"date"`             // Fecha (DD-MM-YYYY)
	ValueDate       string `json:"value_date"`       // Fecha valor
	Product         string `json:"product"`          // Producto
	ISIN            string `json:"isin"`             // ISIN
	Description     string `json:"description"`      // Descripción
	FXRate          string `json:"fx_rate"`          // Tipo (EUR/USD rate, may be empty)
	Currency        string `json:"currency"`         // Variación (currency of the change)
	Amount          string `json:"amount"`           // amount in Currency
	BalanceCurrency string `json:"balance_currency"` // Saldo
	OrderID         string `json:"order_id"`         // ID Orden
}

// PortfolioRow is a single row from the portfolio-holdings CSV export.
type PortfolioRow struct {
	Product  string `json:"product"`   // Producto
	ValueEUR string `json:"value_eur"` // Valor en EUR (comma decimal)
}

type TransactionKind string

const (
	Buy  TransactionKind = "BUY"
	Sell TransactionKind = "SELL"
)

// TransactionEvent is a typed buy/sell event extracted from one account row.
// UnitPrice is already normalized to EUR; Currency records the security's
// native trading currency, which valuation needs to convert market prices.
// Immutable once parsed.
type TransactionEvent struct {
	Security  string
	Kind      TransactionKind
	Quantity  float64
	UnitPrice float64
	Currency  string
	TradeDate time.Time
}

// Consumption records a FIFO consumption of part of a lot by a sell.
type Consumption struct {
	Date     time.Time
	Quantity float64
}

// Lot is a discrete purchase batch of a security. Quantity decreases as
// sells consume it; CostPerUnit is fixed at creation (EUR). A fully
// consumed lot gets ClosedDate set and is skipped by later sells but kept
// for realized-gain attribution and the daily P/L projection.
type Lot struct {
	Security     string
	Quantity     float64
	CostPerUnit  float64
	Currency     string
	OpenedDate   time.Time
	ClosedDate   *time.Time
	Consumptions []Consumption
}

// OpenQuantityOn returns the quantity of the lot still open on the given
// date: the original quantity minus everything consumed on or before it.
func (l *Lot) OpenQuantityOn(date time.Time) float64 {
	qty := l.Quantity
	for _, c := range l.Consumptions {
		qty += c.Quantity
	}
	for _, c := range l.Consumptions {
		if !c.Date.After(date) {
			qty -= c.Quantity
		}
	}
	return qty
}

// LifetimeEnd returns the lot's closing date, or now for still-open lots.
func (l *Lot) LifetimeEnd(now time.Time) time.Time {
	if l.ClosedDate != nil {
		return *l.ClosedDate
	}
	return now
}

// RealizedEvent is emitted every time a sell consumes part or all of a lot.
// Append-only.
type RealizedEvent struct {
	Security        string
	Quantity        float64
	ProfitPerUnit   float64
	RealizationDate time.Time
}

// DailyProfitPoint is one entry of a daily value series.
type DailyProfitPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Warning flags a security/date whose contribution could not be computed
// normally, so consumers can tell "actually zero" from "could not compute".
type Warning struct {
	Security string `json:"security,omitempty"`
	Date     string `json:"date,omitempty"`
	Reason   string `json:"reason"`
}

// DividendDetail is the net dividend for one (value date, product) group.
type DividendDetail struct {
	Product   string  `json:"product"`
	ValueDate string  `json:"value_date"`
	Gross     float64 `json:"gross"`
	Retention float64 `json:"retention"`
	Net       float64 `json:"net"`
	Currency  string  `json:"currency"`
}

// MetricsResult is the payload returned by the upload endpoint.
type MetricsResult struct {
	TotalDividends           float64            `json:"total_dividends"`
	TotalFees                float64            `json:"total_fees"`
	FeeBreakdown             map[string]float64 `json:"fee_breakdown"`
	ProfitLoss               float64            `json:"profit_loss"`
	PortfolioValue           float64            `json:"portfolio_value"`
	CashBalance              float64            `json:"cash_balance"`
	HistoricalPortfolioValue []DailyProfitPoint `json:"historical_portfolio_value"`
	HistoricalCashflow       []DailyProfitPoint `json:"historical_cashflow"`
	CombinedData             []DailyProfitPoint `json:"combined_data"`
	AnnualGrowthRate         float64            `json:"annual_growth_rate"`
	Warnings                 []Warning          `json:"warnings"`
}

// DailyPrice is one row of stored daily price history for a ticker.
type DailyPrice struct {
	Date      string
	Ticker    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Dividends float64
	Splits    float64
}
