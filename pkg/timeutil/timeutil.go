// Package timeutil provides UTC calendar utilities for Math Practice Hub.
// All daily caps, usage budgets, and league weeks are bucketed by UTC
// boundaries so that every service instance agrees on "today" and "this week".
// No external dependencies - uses only standard library.
package timeutil

import "time"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// DayOf truncates a time to its UTC calendar day (00:00:00 UTC).
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the start of the UTC day after t.
func NextDay(t time.Time) time.Time {
	return DayOf(t).AddDate(0, 0, 1)
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// IsYesterday reports whether a falls on the UTC day immediately before b.
func IsYesterday(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b).AddDate(0, 0, -1))
}

// WeekStart returns the start of the UTC week containing t (Monday 00:00:00 UTC).
// League rows are keyed by this boundary.
func WeekStart(t time.Time) time.Time {
	day := DayOf(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// PreviousWeekStart returns the start of the UTC week before the one containing t.
func PreviousWeekStart(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, -7)
}

// NextWeekStart returns the start of the UTC week after the one containing t.
func NextWeekStart(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}

// FormatDay formats a time as a UTC date string (YYYY-MM-DD).
func FormatDay(t time.Time) string {
	return DayOf(t).Format("2006-01-02")
}
