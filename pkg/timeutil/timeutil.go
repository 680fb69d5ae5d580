// Package timeutil provides calendar-day utilities for the progression engine.
// All streak and daily-challenge logic works on whole calendar days, never on
// elapsed hours, so a lesson finished at 23:59 and another at 00:01 count as
// two different days regardless of how close together they happened.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// FormatDay is the canonical day-key layout (YYYY-MM-DD).
const FormatDay = "2006-01-02"

// DayKey returns the canonical day key for a time in its own location.
func DayKey(t time.Time) string {
	return t.Format(FormatDay)
}

// ParseDay parses a day key (YYYY-MM-DD) into the start of that day in UTC.
func ParseDay(key string) (time.Time, error) {
	return time.ParseInLocation(FormatDay, key, time.UTC)
}

// StartOfDay returns the start of the day (00:00:00) for the given time.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextMidnight returns the start of the day after the given time.
// Daily challenges expire at this instant.
func NextMidnight(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// IsSameDay checks if two times fall on the same calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	return t1.Year() == t2.Year() && t1.YearDay() == t2.YearDay()
}

// IsConsecutiveDay checks if t2 is the calendar day immediately after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return IsSameDay(t1.AddDate(0, 0, 1), t2)
}

// DaysBetween returns the number of whole calendar days from t1 to t2.
// The result is signed: negative when t2 is before t1.
func DaysBetween(t1, t2 time.Time) int {
	from := StartOfDay(t1)
	to := StartOfDay(t2)
	return int(to.Sub(from).Hours() / 24)
}

// DaysBetweenKeys returns the signed number of calendar days between two day
// keys. An unparseable "from" key reads as a very old date, so streak logic
// sees a long gap and resets - the safe interpretation for corrupt data.
func DaysBetweenKeys(from, to string) int {
	t, errT := ParseDay(to)
	if errT != nil {
		return 0
	}
	f, errF := ParseDay(from)
	if errF != nil {
		return int(t.Sub(time.Time{}).Hours() / 24)
	}
	return DaysBetween(f, t)
}

// IsWeekend checks if the given time is on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
