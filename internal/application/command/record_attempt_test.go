package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/timeutil"
)

// memLedger is an in-memory AttemptLedger honoring the same atomicity
// contract as the PostgreSQL implementation: one lock per store stands in
// for the per-(student, day) transaction serialization.
type memLedger struct {
	mu       sync.Mutex
	students map[string]bool
	attempts []*practice.Attempt
	xpByDay  map[string]int
}

func newMemLedger(studentIDs ...string) *memLedger {
	students := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		students[id] = true
	}
	return &memLedger{students: students, xpByDay: make(map[string]int)}
}

func (l *memLedger) Record(_ context.Context, attempt *practice.Attempt, rawXP int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.students[attempt.StudentID] {
		return 0, shared.ErrStudentNotFound
	}

	l.attempts = append(l.attempts, attempt)
	key := attempt.StudentID + "|" + timeutil.FormatDay(attempt.CreatedAt)
	awarded := practice.ClampToDailyCap(rawXP, l.xpByDay[key])
	l.xpByDay[key] += awarded
	return awarded, nil
}

func (l *memLedger) StatsByTopic(_ context.Context, studentID, topicID string, recentLimit int) (practice.TopicStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var stats practice.TopicStats
	for i := len(l.attempts) - 1; i >= 0; i-- {
		a := l.attempts[i]
		if a.StudentID != studentID || a.TopicID != topicID {
			continue
		}
		stats.Attempted++
		if a.IsCorrect {
			stats.Correct++
		}
		if len(stats.Recent) < recentLimit {
			stats.Recent = append(stats.Recent, a.IsCorrect)
		}
	}
	return stats, nil
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func validAttemptCmd() RecordAttemptCommand {
	return RecordAttemptCommand{
		StudentID:      "student-1",
		QuestionID:     "question-1",
		TopicID:        "topic-1",
		SelectedAnswer: "42",
		IsCorrect:      true,
		TimeTakenMs:    3000,
	}
}

func TestRecordAttempt_Success(t *testing.T) {
	ledger := newMemLedger("student-1")
	publisher := &capturePublisher{}
	handler := NewRecordAttemptHandler(ledger, nil, publisher, nil)

	result, err := handler.Handle(context.Background(), validAttemptCmd())
	require.NoError(t, err)

	policy := practice.DefaultRewardPolicy()
	assert.Equal(t, policy.RawXP(true, false, 3000), result.XPAwarded)
	assert.Equal(t, "student-1", result.Attempt.StudentID)
	assert.Len(t, ledger.attempts, 1)

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(*shared.AttemptRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, result.XPAwarded, event.XPAwarded)
	assert.Equal(t, "topic-1", event.TopicID)
}

func TestRecordAttempt_UnknownStudent(t *testing.T) {
	handler := NewRecordAttemptHandler(newMemLedger(), nil, &capturePublisher{}, nil)

	cmd := validAttemptCmd()
	cmd.StudentID = "ghost"
	_, err := handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordAttempt_Validation(t *testing.T) {
	handler := NewRecordAttemptHandler(newMemLedger("student-1"), nil, &capturePublisher{}, nil)

	missing := validAttemptCmd()
	missing.QuestionID = ""
	_, err := handler.Handle(context.Background(), missing)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	negative := validAttemptCmd()
	negative.TimeTakenMs = -1
	_, err = handler.Handle(context.Background(), negative)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRecordAttempt_IncorrectAwardsNothing(t *testing.T) {
	ledger := newMemLedger("student-1")
	handler := NewRecordAttemptHandler(ledger, nil, &capturePublisher{}, nil)

	cmd := validAttemptCmd()
	cmd.IsCorrect = false
	result, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 0, result.XPAwarded)
}

func TestRecordAttempt_ConcurrentSubmissionsNeverOvershootCap(t *testing.T) {
	ledger := newMemLedger("student-1")
	handler := NewRecordAttemptHandler(ledger, nil, &capturePublisher{}, nil)

	// Each correct fast answer is worth 15 raw XP; 100 concurrent
	// submissions offer 1500, but only DailyXPCap may land.
	const submissions = 100
	results := make([]int, submissions)

	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := handler.Handle(context.Background(), validAttemptCmd())
			if err == nil {
				results[i] = result.XPAwarded
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for _, awarded := range results {
		assert.GreaterOrEqual(t, awarded, 0)
		total += awarded
	}
	assert.Equal(t, practice.DailyXPCap, total)
	assert.Len(t, ledger.attempts, submissions)
}
