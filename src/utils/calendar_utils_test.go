package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTradingDayWeekend(t *testing.T) {
	cal := NewUSTradingCalendar(2023, 2023)

	assert.False(t, cal.IsTradingDay(date(2023, time.March, 11))) // Saturday
	assert.False(t, cal.IsTradingDay(date(2023, time.March, 12))) // Sunday
	assert.True(t, cal.IsTradingDay(date(2023, time.March, 13)))  // Monday
}

func TestIsTradingDayHolidays(t *testing.T) {
	cal := NewUSTradingCalendar(2023, 2023)

	tests := []struct {
		name string
		day  time.Time
	}{
		{"new year's day observed", date(2023, time.January, 2)}, // Jan 1 was a Sunday
		{"independence day", date(2023, time.July, 4)},
		{"thanksgiving", date(2023, time.November, 23)},
		{"christmas", date(2023, time.December, 25)},
		{"memorial day", date(2023, time.May, 29)},
		{"labor day", date(2023, time.September, 4)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, cal.IsTradingDay(tc.day))
		})
	}

	// Plain weekdays stay open.
	assert.True(t, cal.IsTradingDay(date(2023, time.July, 5)))
}

func TestIsTradingDayOutsideBuiltRange(t *testing.T) {
	cal := NewUSTradingCalendar(2023, 2023)

	// Holidays outside the built range are unknown, so only the weekend
	// rule applies. 2024-07-04 is a Thursday.
	assert.True(t, cal.IsTradingDay(date(2024, time.July, 4)))
}

func TestObservedShifts(t *testing.T) {
	// 2022-12-25 fell on a Sunday; observed on Monday the 26th.
	cal := NewUSTradingCalendar(2022, 2022)
	assert.False(t, cal.IsTradingDay(date(2022, time.December, 26)))

	// 2021-07-04 fell on a Sunday; observed Monday the 5th.
	cal = NewUSTradingCalendar(2021, 2021)
	assert.False(t, cal.IsTradingDay(date(2021, time.July, 5)))
}
