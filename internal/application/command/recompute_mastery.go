package command

import (
	"context"
	"errors"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE MASTERY COMMAND
// Rebuilds one (student, topic) progress row from the durable attempt log.
// The recompute derives everything from history rather than incremental
// deltas, so it is idempotent and safe to invoke concurrently for the same
// key: the last writer lands on the same aggregate.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeMasteryHandler handles mastery recomputation.
type RecomputeMasteryHandler struct {
	ledger    practice.AttemptLedger
	progress  practice.ProgressRepository
	policy    practice.MasteryPolicy
	publisher shared.EventPublisher
	logger    *logger.Logger
}

// NewRecomputeMasteryHandler creates a RecomputeMasteryHandler.
func NewRecomputeMasteryHandler(
	ledger practice.AttemptLedger,
	progress practice.ProgressRepository,
	policy practice.MasteryPolicy,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecomputeMasteryHandler {
	if policy.RecentWindow == 0 {
		policy = practice.DefaultMasteryPolicy()
	}
	if log == nil {
		log = logger.Default()
	}
	return &RecomputeMasteryHandler{
		ledger:    ledger,
		progress:  progress,
		policy:    policy,
		publisher: publisher,
		logger:    log.With(logger.String("handler", "recompute_mastery")),
	}
}

// Recompute aggregates the attempt history for the key and upserts the
// progress row. Callers on the attempt-recording path must treat errors as
// log-and-retry-out-of-band, never as request failures.
func (h *RecomputeMasteryHandler) Recompute(ctx context.Context, studentID, topicID string) error {
	stats, err := h.ledger.StatsByTopic(ctx, studentID, topicID, h.policy.RecentWindow)
	if err != nil {
		return shared.WrapError("practice", "Recompute", shared.ErrInternal, "failed to aggregate attempts", err)
	}

	current := practice.MasteryNotStarted
	existing, err := h.progress.Get(ctx, studentID, topicID)
	switch {
	case err == nil:
		current = existing.Mastery
	case errors.Is(err, shared.ErrNotFound):
		// First recompute for this topic; row is created below.
	default:
		return shared.WrapError("practice", "Recompute", shared.ErrInternal, "failed to load progress", err)
	}

	derived := h.policy.Derive(current, stats)
	row := &practice.Progress{
		StudentID: studentID,
		TopicID:   topicID,
		Attempted: stats.Attempted,
		Correct:   stats.Correct,
		Mastery:   derived,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.progress.Upsert(ctx, row); err != nil {
		return shared.WrapError("practice", "Recompute", shared.ErrInternal, "failed to upsert progress", err)
	}

	if derived != current && h.publisher != nil {
		event := shared.NewMasteryChangedEvent(studentID, topicID, string(current), string(derived))
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish mastery change", logger.Err(err))
		}
	}

	h.logger.Debug("mastery recomputed",
		logger.String("student_id", studentID),
		logger.String("topic_id", topicID),
		logger.Int("attempted", stats.Attempted),
		logger.String("mastery", string(derived)),
	)
	return nil
}
