package utils

import "time"

// TradingCalendar answers whether a date belongs in a daily market series.
// Weekends and US public holidays are omitted from output series entirely,
// so downstream consumers forward-fill across the gaps.
type TradingCalendar struct {
	holidays map[string]bool
}

// NewUSTradingCalendar builds a calendar with the US federal holidays for
// the given year range (inclusive).
func NewUSTradingCalendar(fromYear, toYear int) *TradingCalendar {
	holidays := make(map[string]bool)
	for year := fromYear; year <= toYear; year++ {
		for _, d := range usFederalHolidays(year) {
			holidays[d.Format(ISODateFormat)] = true
		}
	}
	return &TradingCalendar{holidays: holidays}
}

// IsTradingDay reports whether the date is a weekday and not a holiday.
func (c *TradingCalendar) IsTradingDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.holidays[t.Format(ISODateFormat)]
}

// usFederalHolidays returns the federal holidays of one year, including
// the Saturday->Friday and Sunday->Monday observation shifts.
func usFederalHolidays(year int) []time.Time {
	var days []time.Time

	fixed := []time.Time{
		date(year, time.January, 1),   // New Year's Day
		date(year, time.June, 19),     // Juneteenth
		date(year, time.July, 4),      // Independence Day
		date(year, time.November, 11), // Veterans Day
		date(year, time.December, 25), // Christmas Day
	}
	for _, d := range fixed {
		days = append(days, observed(d))
	}

	days = append(days,
		nthWeekday(year, time.January, time.Monday, 3),    // Martin Luther King Jr. Day
		nthWeekday(year, time.February, time.Monday, 3),   // Washington's Birthday
		lastWeekday(year, time.May, time.Monday),          // Memorial Day
		nthWeekday(year, time.September, time.Monday, 1),  // Labor Day
		nthWeekday(year, time.October, time.Monday, 2),    // Columbus Day
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving
	)

	return days
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
