package practice

import (
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/student"
	"github.com/mathhive/math-practice-hub/pkg/timeutil"
)

// UsageLog is the per-(student, UTC day) usage row. Exactly one row exists
// per key, enforced by a uniqueness constraint and upsert-increment writes.
type UsageLog struct {
	StudentID      string
	Day            time.Time
	AttemptedCount int
	MinutesUsed    int
	XPEarned       int
}

// GateStatus is the usage gate's answer to a heartbeat or pre-session check.
type GateStatus struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
}

// DailyCounters is the slice of student state the usage gate's day-boundary
// logic reads and writes. The store implementation loads it under a per-student
// lock, applies Tick, and writes it back in the same transaction.
type DailyCounters struct {
	LastActiveDate    time.Time
	DailyUsageMinutes int
	StreakDays        int
}

// Tick applies one heartbeat minute to the counters. Crossing a UTC midnight
// resets the running minute counter to exactly 1 and advances or resets the
// streak; same-day ticks increment.
func Tick(c DailyCounters, now time.Time) DailyCounters {
	if !c.LastActiveDate.IsZero() && timeutil.SameDay(c.LastActiveDate, now) {
		c.DailyUsageMinutes++
		return c
	}

	if !c.LastActiveDate.IsZero() && timeutil.IsYesterday(c.LastActiveDate, now) {
		c.StreakDays++
	} else {
		c.StreakDays = 1
	}
	c.DailyUsageMinutes = 1
	c.LastActiveDate = timeutil.DayOf(now)
	return c
}

// GateFor evaluates the counters against a plan limit without mutating them.
// Stale counters from a previous day count as zero minutes used today.
func GateFor(c DailyCounters, limitMinutes int, now time.Time) GateStatus {
	used := c.DailyUsageMinutes
	if c.LastActiveDate.IsZero() || !timeutil.SameDay(c.LastActiveDate, now) {
		used = 0
	}

	if limitMinutes >= student.UnlimitedDailyMinutes {
		return GateStatus{Allowed: true, Used: used, Limit: limitMinutes, Remaining: limitMinutes - used}
	}

	remaining := limitMinutes - used
	if remaining < 0 {
		remaining = 0
	}
	return GateStatus{
		Allowed:   used < limitMinutes,
		Used:      used,
		Limit:     limitMinutes,
		Remaining: remaining,
	}
}
