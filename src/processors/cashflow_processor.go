package processors

import (
	"sort"

	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/utils"
)

// CashflowProcessor builds the cumulative cash-flow series: the running
// sum of EUR-denominated amounts in chronological order. Source rows
// arrive newest-first, so the scan runs backwards.
type CashflowProcessor struct{}

func NewCashflowProcessor() *CashflowProcessor {
	return &CashflowProcessor{}
}

func (p *CashflowProcessor) Process(rows []models.AccountRow) []models.DailyProfitPoint {
	byDate := make(map[string]float64)
	cumulative := 0.0

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if row.Currency != "EUR" {
			continue
		}
		day, err := utils.ParseDate(row.Date)
		if err != nil {
			continue
		}
		cumulative += cleanAmount(row.Amount)
		// Duplicate dates keep the last (latest) running total.
		byDate[day.Format(utils.ISODateFormat)] = cumulative
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	series := make([]models.DailyProfitPoint, 0, len(dates))
	for _, d := range dates {
		series = append(series, models.DailyProfitPoint{
			Date:  d,
			Value: utils.RoundFloat(byDate[d], 2),
		})
	}
	return series
}
