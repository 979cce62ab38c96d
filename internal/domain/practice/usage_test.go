package practice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mathhive/math-practice-hub/internal/domain/student"
)

func TestTick_SameDayIncrements(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	c := DailyCounters{
		LastActiveDate:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DailyUsageMinutes: 41,
		StreakDays:        3,
	}

	next := Tick(c, now)
	assert.Equal(t, 42, next.DailyUsageMinutes)
	assert.Equal(t, 3, next.StreakDays)
}

func TestTick_MidnightResetsToOne(t *testing.T) {
	// Active yesterday; the first heartbeat after midnight resets the
	// minute counter to exactly 1 and extends the streak.
	c := DailyCounters{
		LastActiveDate:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DailyUsageMinutes: 59,
		StreakDays:        3,
	}
	justAfterMidnight := time.Date(2026, 3, 16, 0, 0, 30, 0, time.UTC)

	next := Tick(c, justAfterMidnight)
	assert.Equal(t, 1, next.DailyUsageMinutes)
	assert.Equal(t, 4, next.StreakDays)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), next.LastActiveDate)

	// Further same-day ticks increment; the reset happens exactly once.
	next = Tick(next, justAfterMidnight.Add(time.Minute))
	assert.Equal(t, 2, next.DailyUsageMinutes)
	assert.Equal(t, 4, next.StreakDays)
}

func TestTick_GapBreaksStreak(t *testing.T) {
	c := DailyCounters{
		LastActiveDate:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DailyUsageMinutes: 30,
		StreakDays:        7,
	}

	next := Tick(c, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, next.DailyUsageMinutes)
	assert.Equal(t, 1, next.StreakDays)
}

func TestTick_FirstEverActivity(t *testing.T) {
	next := Tick(DailyCounters{}, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, next.DailyUsageMinutes)
	assert.Equal(t, 1, next.StreakDays)
}

func TestGateFor_LimitReached(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	// dailyUsageMinutes=59, limit=60: one heartbeat lands on the limit.
	c := DailyCounters{
		LastActiveDate:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DailyUsageMinutes: 59,
	}
	c = Tick(c, now)
	status := GateFor(c, 60, now)

	assert.False(t, status.Allowed)
	assert.Equal(t, 60, status.Used)
	assert.Equal(t, 60, status.Limit)
	assert.Equal(t, 0, status.Remaining)
}

func TestGateFor_UnderLimit(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	c := DailyCounters{
		LastActiveDate:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DailyUsageMinutes: 10,
	}

	status := GateFor(c, 60, now)
	assert.True(t, status.Allowed)
	assert.Equal(t, 10, status.Used)
	assert.Equal(t, 50, status.Remaining)
}

func TestGateFor_StaleCountersCountAsZero(t *testing.T) {
	// Read-only check after midnight must not count yesterday's minutes.
	now := time.Date(2026, 3, 16, 0, 5, 0, 0, time.UTC)
	c := DailyCounters{
		LastActiveDate:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DailyUsageMinutes: 60,
	}

	status := GateFor(c, 60, now)
	assert.True(t, status.Allowed)
	assert.Equal(t, 0, status.Used)
	assert.Equal(t, 60, status.Remaining)
}

func TestGateFor_UnlimitedPlanAlwaysAllows(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	c := DailyCounters{
		LastActiveDate:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DailyUsageMinutes: 99999,
	}

	status := GateFor(c, student.UnlimitedDailyMinutes, now)
	assert.True(t, status.Allowed)
}
