package practice

import (
	"strings"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/shared"
)

// Attempt is one answer submission. Attempts form an append-only log: rows
// are created exactly once and never mutated or deleted. Mastery is always
// recomputed from this log, never from incremental deltas.
type Attempt struct {
	// ID is the attempt UUID.
	ID string

	// StudentID is the submitting student.
	StudentID string

	// QuestionID is the answered question.
	QuestionID string

	// TopicID is denormalized from the question for per-topic aggregation.
	TopicID string

	// SelectedAnswer is the answer the student picked.
	SelectedAnswer string

	// IsCorrect is whether the selected answer matched the answer key.
	IsCorrect bool

	// TimeTakenMs is how long the student took, in milliseconds.
	TimeTakenMs int

	// HintUsed is whether any hint/step was revealed before answering.
	HintUsed bool

	// IsBonusQuestion marks bonus-flagged questions that earn extra XP.
	IsBonusQuestion bool

	CreatedAt time.Time
}

// NewAttempt validates and builds an attempt row.
func NewAttempt(id, studentID, questionID, topicID, selectedAnswer string, isCorrect, hintUsed, isBonus bool, timeTakenMs int) (*Attempt, error) {
	switch {
	case strings.TrimSpace(id) == "":
		return nil, shared.NewDomainError("practice", "NewAttempt", shared.ErrEmptyValue, "attempt id is required")
	case strings.TrimSpace(studentID) == "":
		return nil, shared.NewDomainError("practice", "NewAttempt", shared.ErrEmptyValue, "student id is required")
	case strings.TrimSpace(questionID) == "":
		return nil, shared.NewDomainError("practice", "NewAttempt", shared.ErrEmptyValue, "question id is required")
	case strings.TrimSpace(topicID) == "":
		return nil, shared.NewDomainError("practice", "NewAttempt", shared.ErrEmptyValue, "topic id is required")
	case timeTakenMs < 0:
		return nil, shared.NewDomainError("practice", "NewAttempt", shared.ErrNegativeValue, "time taken cannot be negative")
	}

	return &Attempt{
		ID:              id,
		StudentID:       studentID,
		QuestionID:      questionID,
		TopicID:         topicID,
		SelectedAnswer:  selectedAnswer,
		IsCorrect:       isCorrect,
		TimeTakenMs:     timeTakenMs,
		HintUsed:        hintUsed,
		IsBonusQuestion: isBonus,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// TopicStats aggregates a student's attempt history for one topic.
// Recent holds correctness of the newest attempts, newest first, capped at
// the mastery policy's window size.
type TopicStats struct {
	Attempted int
	Correct   int
	Recent    []bool
}
