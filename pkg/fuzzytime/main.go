package fuzzytime

import (
	"fmt"
	"time"
)

// rough, english-only rendering of how long ago something happened,
// e.g. "3 hours ago", "last week", "2 years 1 month ago".

const (
	day = 24 * time.Hour
	week = 7 * day
	month = 30 * day
	year = 12 * month
)

func plural(n int64, unit string) string {
	if n == 1 { return "1 " + unit }
	return fmt.Sprintf("%d %ss", n, unit)
}

// rounds d to a whole number of units, rounding up when the remainder
// is at least `up` of a unit.
func roundUnit(d time.Duration, unit time.Duration, up float64) int64 {
	n := int64(d / unit)
	if float64(d % unit) >= up * float64(unit) { n += 1 }
	return n
}

func Duration(d time.Duration) string {
	if d < 0 { return "in the future" }
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int64(d / time.Minute), "minute") + " ago"
	case d < 2 * time.Hour:
		return "an hour ago"
	case d < 12 * time.Hour:
		return plural(int64(d / time.Hour), "hour") + " ago"
	case d < 26 * time.Hour:
		return "a day ago"
	case d < week:
		return plural(roundUnit(d, day, 0.8), "day") + " ago"
	case d < 2 * week:
		return "last week"
	case d < month:
		return plural(roundUnit(d, week, 0.85), "week") + " ago"
	case d < year:
		n := roundUnit(d, month, 0.8)
		if n >= 12 { return "a year ago" }
		if n == 1 { return "a month ago" }
		return plural(n, "month") + " ago"
	}
	years := int64(d / year)
	months := int64((d % year) / month)
	if months == 0 { return plural(years, "year") + " ago" }
	return plural(years, "year") + " " + plural(months, "month") + " ago"
}

func Since(t time.Time, now time.Time) string {
	return Duration(now.Sub(t))
}
