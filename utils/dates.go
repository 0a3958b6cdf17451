package utils

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseLocalDate parses a YYYY-MM-DD date as local midnight.
func ParseLocalDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

// WeekAnchor returns local midnight of the most recent Sunday on or before t.
func WeekAnchor(t time.Time) time.Time {
	day := DateOnly(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// IsPastDate reports whether day falls on a calendar day before now's.
func IsPastDate(day, now time.Time) bool {
	return DateOnly(day).Before(DateOnly(now.In(day.Location())))
}
