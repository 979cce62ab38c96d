// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NEXT QUESTION QUERY
// The adaptive selector: picks one question for the student from the topic,
// biased by mastery and streak signals. Recently seen questions are a soft
// preference to avoid, never a hard block. Pure given catalog and mastery
// state, so the same query yields the same question.
// ══════════════════════════════════════════════════════════════════════════════

// NextQuestionQuery contains the selection inputs.
type NextQuestionQuery struct {
	// StudentID is the practicing student.
	StudentID string

	// TopicID is the topic to pick from.
	TopicID string

	// ExcludeIDs are recently-seen question IDs to avoid when possible.
	ExcludeIDs []string

	// ConsecutiveWrong is the student's current run of wrong answers.
	ConsecutiveWrong int

	// ConsecutiveRight is the student's current run of right answers.
	ConsecutiveRight int
}

// Validate validates the query.
func (q NextQuestionQuery) Validate() error {
	switch {
	case strings.TrimSpace(q.StudentID) == "":
		return shared.NewDomainError("practice", "NextQuestion", shared.ErrInvalidInput, "student_id is required")
	case strings.TrimSpace(q.TopicID) == "":
		return shared.NewDomainError("practice", "NextQuestion", shared.ErrInvalidInput, "topic_id is required")
	case q.ConsecutiveWrong < 0 || q.ConsecutiveRight < 0:
		return shared.NewDomainError("practice", "NextQuestion", shared.ErrInvalidInput, "streak counters cannot be negative")
	}
	return nil
}

// NextQuestionHandler handles NextQuestionQuery.
type NextQuestionHandler struct {
	bank     practice.QuestionBank
	progress practice.ProgressRepository
}

// NewNextQuestionHandler creates a NextQuestionHandler.
func NewNextQuestionHandler(bank practice.QuestionBank, progress practice.ProgressRepository) *NextQuestionHandler {
	return &NextQuestionHandler{bank: bank, progress: progress}
}

// Handle returns exactly one question, or shared.ErrNoQuestionAvailable only
// when the topic has zero questions at all.
func (h *NextQuestionHandler) Handle(ctx context.Context, q NextQuestionQuery) (*practice.Question, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	mastery := practice.MasteryNotStarted
	progress, err := h.progress.Get(ctx, q.StudentID, q.TopicID)
	switch {
	case err == nil:
		mastery = progress.Mastery
	case errors.Is(err, shared.ErrNotFound):
		// Topic never attempted: NotStarted default.
	default:
		return nil, err
	}

	target := practice.TargetDifficulty(mastery, q.ConsecutiveWrong, q.ConsecutiveRight)

	// First choice: the topic minus recently-seen questions. PickQuestion
	// already falls back from the target difficulty to any difficulty.
	pool, err := h.bank.ListByTopicExcluding(ctx, q.TopicID, q.ExcludeIDs)
	if err != nil {
		return nil, err
	}
	if picked := practice.PickQuestion(pool, target); picked != nil {
		return picked, nil
	}

	// Everything was excluded: ignore the exclusion list before giving up.
	full, err := h.bank.ListByTopic(ctx, q.TopicID)
	if err != nil {
		return nil, err
	}
	if picked := practice.PickQuestion(full, target); picked != nil {
		return picked, nil
	}

	return nil, shared.ErrNoQuestionAvailable
}
