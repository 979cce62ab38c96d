package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/internal/domain/student"
)

// fakeUsageStore evaluates the gate over fixed counters and never mutates.
type fakeUsageStore struct {
	counters map[string]practice.DailyCounters
	limits   map[string]int
}

func (s *fakeUsageStore) Heartbeat(_ context.Context, studentID string, now time.Time) (practice.GateStatus, error) {
	panic("read-only query must not heartbeat")
}

func (s *fakeUsageStore) Check(_ context.Context, studentID string, now time.Time) (practice.GateStatus, error) {
	counters, ok := s.counters[studentID]
	if !ok {
		return practice.GateStatus{}, shared.ErrStudentNotFound
	}
	return practice.GateFor(counters, s.limits[studentID], now), nil
}

func TestCheckUsage_ReportsRemainingMinutes(t *testing.T) {
	now := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)
	store := &fakeUsageStore{
		counters: map[string]practice.DailyCounters{
			"s1": {LastActiveDate: now.Truncate(24 * time.Hour), DailyUsageMinutes: 45},
		},
		limits: map[string]int{"s1": 60},
	}
	handler := NewCheckUsageHandler(store)
	handler.now = func() time.Time { return now }

	status, err := handler.Handle(context.Background(), CheckUsageQuery{StudentID: "s1"})
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 45, status.Used)
	assert.Equal(t, 15, status.Remaining)
}

func TestCheckUsage_StaleCountersCountAsZero(t *testing.T) {
	now := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)
	store := &fakeUsageStore{
		counters: map[string]practice.DailyCounters{
			"s1": {LastActiveDate: now.AddDate(0, 0, -3), DailyUsageMinutes: 60},
		},
		limits: map[string]int{"s1": 60},
	}
	handler := NewCheckUsageHandler(store)
	handler.now = func() time.Time { return now }

	status, err := handler.Handle(context.Background(), CheckUsageQuery{StudentID: "s1"})
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 0, status.Used)
}

func TestCheckUsage_UnlimitedPlan(t *testing.T) {
	store := &fakeUsageStore{
		counters: map[string]practice.DailyCounters{"s1": {}},
		limits:   map[string]int{"s1": student.UnlimitedDailyMinutes},
	}
	handler := NewCheckUsageHandler(store)

	status, err := handler.Handle(context.Background(), CheckUsageQuery{StudentID: "s1"})
	require.NoError(t, err)
	assert.True(t, status.Allowed)
}

func TestCheckUsage_Validation(t *testing.T) {
	handler := NewCheckUsageHandler(&fakeUsageStore{})

	_, err := handler.Handle(context.Background(), CheckUsageQuery{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
