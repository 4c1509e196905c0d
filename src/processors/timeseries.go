package processors

import (
	"time"

	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/utils"
)

// ReindexDaily projects a sparse daily series onto every calendar day in
// [start, end]: gaps are forward-filled, and any leading gap is back-filled
// with the first known value, so the result has exactly one entry per day.
func ReindexDaily(points []models.DailyProfitPoint, start, end time.Time) []models.DailyProfitPoint {
	if end.Before(start) {
		return nil
	}

	byDate := make(map[string]float64, len(points))
	for _, p := range points {
		byDate[p.Date] = p.Value // duplicate dates: last occurrence wins
	}

	var out []models.DailyProfitPoint
	haveLast := false
	last := 0.0
	firstKnownAt := -1
	for day := utils.Day(start); !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(utils.ISODateFormat)
		if v, ok := byDate[key]; ok {
			last = v
			if !haveLast {
				haveLast = true
				firstKnownAt = len(out)
			}
		}
		out = append(out, models.DailyProfitPoint{Date: key, Value: last})
	}

	// Back-fill the leading gap with the first known value.
	if haveLast && firstKnownAt > 0 {
		first := out[firstKnownAt].Value
		for i := 0; i < firstKnownAt; i++ {
			out[i].Value = first
		}
	}

	return out
}

// CombineSeries sums two date-aligned series pointwise, rounding each
// emitted value to 2 decimals.
func CombineSeries(a, b []models.DailyProfitPoint) []models.DailyProfitPoint {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	combined := make([]models.DailyProfitPoint, 0, n)
	for i := 0; i < n; i++ {
		combined = append(combined, models.DailyProfitPoint{
			Date:  a[i].Date,
			Value: utils.RoundFloat(a[i].Value+b[i].Value, 2),
		})
	}
	return combined
}
