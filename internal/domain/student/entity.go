// Package student contains the student aggregate: identity, lifetime XP,
// league tier, streak, and the per-day usage counters the gate relies on.
package student

import (
	"strings"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/shared"
)

// UnlimitedDailyMinutes is the threshold at or above which a plan's daily
// limit is treated as unlimited: the usage gate always allows.
const UnlimitedDailyMinutes = 10000

// DefaultDailyLimitMinutes is the free-plan daily practice budget.
const DefaultDailyLimitMinutes = 60

// Student is the central aggregate of the practice system.
//
// Ownership of mutable fields is split by component:
//   - LifetimeXP is incremented by the league lifecycle manager (XP credit).
//   - CurrentTier is set only by the weekly rollover.
//   - DailyUsageMinutes / LastActiveDate / StreakDays are owned by the usage
//     gate's day-boundary logic.
type Student struct {
	// ID is the internal UUID.
	ID string

	// DisplayName is shown on leaderboards.
	DisplayName string

	// Grade is the school grade the student practices in.
	Grade int

	// LifetimeXP is the monotonic all-time XP total.
	LifetimeXP int64

	// CurrentTier is the student's league tier (1 lowest .. 5 highest).
	CurrentTier int

	// StreakDays is the count of consecutive active UTC days.
	StreakDays int

	// LastActiveDate is the UTC day of the most recent counted activity.
	// Zero value means the student has never been active.
	LastActiveDate time.Time

	// DailyUsageMinutes is the running minute counter for LastActiveDate.
	DailyUsageMinutes int

	// DailyLimitMinutes is the plan's daily budget.
	DailyLimitMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a student with plan defaults applied.
func New(id, displayName string, grade int) (*Student, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("student", "New", shared.ErrEmptyValue, "id is required")
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, shared.NewDomainError("student", "New", shared.ErrEmptyValue, "display name is required")
	}
	if grade < 0 {
		return nil, shared.NewDomainError("student", "New", shared.ErrNegativeValue, "grade cannot be negative")
	}

	now := time.Now().UTC()
	return &Student{
		ID:                id,
		DisplayName:       displayName,
		Grade:             grade,
		CurrentTier:       1,
		DailyLimitMinutes: DefaultDailyLimitMinutes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// HasUnlimitedUsage reports whether the student's plan never gates.
func (s *Student) HasUnlimitedUsage() bool {
	return s.DailyLimitMinutes >= UnlimitedDailyMinutes
}
