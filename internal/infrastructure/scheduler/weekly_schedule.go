package scheduler

import (
	"fmt"
	"time"
)

// WeeklySchedule schedules a job for a fixed weekday and time of day, in UTC.
// Weeks run Monday to Sunday, so the league rollover fires a few minutes past
// Monday midnight: the previous week is closed, and a late re-run finds every
// league guard already stamped.
type WeeklySchedule struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// NewWeeklySchedule creates a WeeklySchedule for the given UTC slot.
func NewWeeklySchedule(weekday time.Weekday, hour, minute int) *WeeklySchedule {
	return &WeeklySchedule{Weekday: weekday, Hour: hour, Minute: minute}
}

// Next returns the next occurrence of the slot strictly after t.
func (s *WeeklySchedule) Next(t time.Time) time.Time {
	t = t.UTC()

	candidate := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, time.UTC)
	daysAhead := (int(s.Weekday) - int(t.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, daysAhead)

	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// String returns the string representation of the schedule.
func (s *WeeklySchedule) String() string {
	return fmt.Sprintf("@weekly %s %02d:%02d UTC", s.Weekday, s.Hour, s.Minute)
}
