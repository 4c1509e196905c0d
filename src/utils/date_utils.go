package utils

import (
	"fmt"
	"time"
)

// DefaultDateFormat is the broker export's date layout.
const DefaultDateFormat = "02-01-2006"

// ISODateFormat is the layout used in stored history and the JSON payload.
const ISODateFormat = "2006-01-02"

// ParseDate parses a date string in the broker's DD-MM-YYYY format.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want DD-MM-YYYY): %w", dateStr, err)
	}
	return t, nil
}

// Day truncates a time to midnight UTC so dates compare cleanly.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
