package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/internal/domain/student"
)

// memUsageStore is an in-memory UsageStore serializing the day-boundary
// read-modify-write per store, as the PostgreSQL implementation does per
// student row.
type memUsageStore struct {
	mu       sync.Mutex
	counters map[string]practice.DailyCounters
	limits   map[string]int
}

func newMemUsageStore() *memUsageStore {
	return &memUsageStore{
		counters: make(map[string]practice.DailyCounters),
		limits:   make(map[string]int),
	}
}

func (s *memUsageStore) addStudent(id string, limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[id] = practice.DailyCounters{}
	s.limits[id] = limit
}

func (s *memUsageStore) Heartbeat(_ context.Context, studentID string, now time.Time) (practice.GateStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, ok := s.counters[studentID]
	if !ok {
		return practice.GateStatus{}, shared.ErrStudentNotFound
	}
	counters = practice.Tick(counters, now)
	s.counters[studentID] = counters
	return practice.GateFor(counters, s.limits[studentID], now), nil
}

func (s *memUsageStore) Check(_ context.Context, studentID string, now time.Time) (practice.GateStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, ok := s.counters[studentID]
	if !ok {
		return practice.GateStatus{}, shared.ErrStudentNotFound
	}
	return practice.GateFor(counters, s.limits[studentID], now), nil
}

func heartbeatHandlerAt(store *memUsageStore, now time.Time) *HeartbeatHandler {
	handler := NewHeartbeatHandler(store, nil)
	handler.now = func() time.Time { return now }
	return handler
}

func TestHeartbeat_CountsUpToTheLimit(t *testing.T) {
	store := newMemUsageStore()
	store.addStudent("s1", 60)
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	handler := heartbeatHandlerAt(store, now)

	var status practice.GateStatus
	var err error
	for i := 0; i < 59; i++ {
		status, err = handler.Handle(context.Background(), HeartbeatCommand{StudentID: "s1"})
		require.NoError(t, err)
	}
	assert.True(t, status.Allowed)
	assert.Equal(t, 59, status.Used)
	assert.Equal(t, 1, status.Remaining)

	// Minute 60 lands and closes the gate.
	status, err = handler.Handle(context.Background(), HeartbeatCommand{StudentID: "s1"})
	require.NoError(t, err)
	assert.False(t, status.Allowed)
	assert.Equal(t, 60, status.Used)
	assert.Equal(t, 0, status.Remaining)
}

func TestHeartbeat_MidnightResetsExactlyOnce(t *testing.T) {
	store := newMemUsageStore()
	store.addStudent("s1", 60)

	yesterday := time.Date(2026, 4, 2, 23, 30, 0, 0, time.UTC)
	before := heartbeatHandlerAt(store, yesterday)
	for i := 0; i < 30; i++ {
		_, err := before.Handle(context.Background(), HeartbeatCommand{StudentID: "s1"})
		require.NoError(t, err)
	}

	// Concurrent heartbeats just past midnight: exactly one resets the
	// counter, the rest increment it.
	after := heartbeatHandlerAt(store, time.Date(2026, 4, 3, 0, 0, 10, 0, time.UTC))
	const ticks = 10
	var wg sync.WaitGroup
	for i := 0; i < ticks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := after.Handle(context.Background(), HeartbeatCommand{StudentID: "s1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	status, err := after.usage.Check(context.Background(), "s1", after.now())
	require.NoError(t, err)
	assert.Equal(t, ticks, status.Used)
}

func TestHeartbeat_StreakAdvancesAcrossConsecutiveDays(t *testing.T) {
	store := newMemUsageStore()
	store.addStudent("s1", 60)

	day1 := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day5 := day1.AddDate(0, 0, 4)

	_, err := heartbeatHandlerAt(store, day1).Handle(context.Background(), HeartbeatCommand{StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.counters["s1"].StreakDays)

	_, err = heartbeatHandlerAt(store, day2).Handle(context.Background(), HeartbeatCommand{StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.counters["s1"].StreakDays)

	// A gap breaks the streak back to one.
	_, err = heartbeatHandlerAt(store, day5).Handle(context.Background(), HeartbeatCommand{StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.counters["s1"].StreakDays)
}

func TestHeartbeat_UnlimitedPlanNeverCloses(t *testing.T) {
	store := newMemUsageStore()
	store.addStudent("s1", student.UnlimitedDailyMinutes)
	handler := heartbeatHandlerAt(store, time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 200; i++ {
		status, err := handler.Handle(context.Background(), HeartbeatCommand{StudentID: "s1"})
		require.NoError(t, err)
		assert.True(t, status.Allowed)
	}
}

func TestHeartbeat_UnknownStudent(t *testing.T) {
	handler := heartbeatHandlerAt(newMemUsageStore(), time.Now().UTC())

	_, err := handler.Handle(context.Background(), HeartbeatCommand{StudentID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = handler.Handle(context.Background(), HeartbeatCommand{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
