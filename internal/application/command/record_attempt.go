// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ATTEMPT COMMAND
// The atomic core of the practice flow: persists one answer submission,
// increments today's usage counters, and settles the capped XP award in a
// single transaction. Mastery recompute and league credit are dispatched
// asynchronously after commit and never fail the request.
// ══════════════════════════════════════════════════════════════════════════════

// RecordAttemptCommand contains one answer submission.
type RecordAttemptCommand struct {
	// StudentID is the submitting student's internal ID.
	StudentID string

	// QuestionID is the answered question.
	QuestionID string

	// TopicID is the question's topic, denormalized onto the attempt.
	TopicID string

	// SelectedAnswer is the answer the student picked.
	SelectedAnswer string

	// IsCorrect is whether the selected answer was correct.
	IsCorrect bool

	// HintUsed is whether a hint/step was revealed before answering.
	HintUsed bool

	// TimeTakenMs is how long the student took, in milliseconds.
	TimeTakenMs int

	// IsBonusQuestion marks bonus-flagged questions.
	IsBonusQuestion bool
}

// Validate validates the command.
func (c RecordAttemptCommand) Validate() error {
	switch {
	case strings.TrimSpace(c.StudentID) == "":
		return shared.NewDomainError("practice", "RecordAttempt", shared.ErrInvalidInput, "student_id is required")
	case strings.TrimSpace(c.QuestionID) == "":
		return shared.NewDomainError("practice", "RecordAttempt", shared.ErrInvalidInput, "question_id is required")
	case strings.TrimSpace(c.TopicID) == "":
		return shared.NewDomainError("practice", "RecordAttempt", shared.ErrInvalidInput, "topic_id is required")
	case c.TimeTakenMs < 0:
		return shared.NewDomainError("practice", "RecordAttempt", shared.ErrInvalidInput, "time_taken_ms cannot be negative")
	}
	return nil
}

// RecordAttemptResult contains the stored attempt and the XP awarded by this
// call after the daily cap was applied.
type RecordAttemptResult struct {
	Attempt   *practice.Attempt
	XPAwarded int
}

// RecordAttemptHandler handles RecordAttemptCommand.
type RecordAttemptHandler struct {
	ledger    practice.AttemptLedger
	policy    practice.RewardPolicy
	publisher shared.EventPublisher
	logger    *logger.Logger
}

// NewRecordAttemptHandler creates a RecordAttemptHandler.
func NewRecordAttemptHandler(
	ledger practice.AttemptLedger,
	policy practice.RewardPolicy,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecordAttemptHandler {
	if policy == nil {
		policy = practice.DefaultRewardPolicy()
	}
	if log == nil {
		log = logger.Default()
	}
	return &RecordAttemptHandler{
		ledger:    ledger,
		policy:    policy,
		publisher: publisher,
		logger:    log.With(logger.String("handler", "record_attempt")),
	}
}

// Handle records the attempt. It fails only on malformed input or an unknown
// student; downstream dispatch problems are logged, never surfaced.
func (h *RecordAttemptHandler) Handle(ctx context.Context, cmd RecordAttemptCommand) (*RecordAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	attempt, err := practice.NewAttempt(
		uuid.NewString(),
		cmd.StudentID,
		cmd.QuestionID,
		cmd.TopicID,
		cmd.SelectedAnswer,
		cmd.IsCorrect,
		cmd.HintUsed,
		cmd.IsBonusQuestion,
		cmd.TimeTakenMs,
	)
	if err != nil {
		return nil, err
	}

	// The reward curve is pure; the cap settlement happens inside the
	// ledger's transaction against a consistent view of today's XP.
	rawXP := h.policy.RawXP(cmd.IsCorrect, cmd.IsBonusQuestion, cmd.TimeTakenMs)

	start := time.Now()
	awarded, err := h.ledger.Record(ctx, attempt, rawXP)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("attempt recorded",
		logger.String("student_id", cmd.StudentID),
		logger.String("topic_id", cmd.TopicID),
		logger.Bool("correct", cmd.IsCorrect),
		logger.Int("xp_awarded", awarded),
		logger.Duration("took", time.Since(start)),
	)

	// Fire-and-forget: the event carries the already-capped award so the
	// league worker credits it once and never re-derives it.
	if h.publisher != nil {
		event := shared.NewAttemptRecordedEvent(attempt.ID, attempt.StudentID, attempt.TopicID, attempt.IsCorrect, awarded)
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Error("failed to publish attempt event; mastery/league update skipped",
				logger.String("attempt_id", attempt.ID),
				logger.Err(err),
			)
		}
	}

	return &RecordAttemptResult{Attempt: attempt, XPAwarded: awarded}, nil
}
