// Package eventhandler wires domain events to the asynchronous workers.
package eventhandler

import (
	"context"
	"time"

	"github.com/mathhive/math-practice-hub/internal/application/command"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/logger"
	"github.com/mathhive/math-practice-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON ATTEMPT RECORDED
// The fire-and-forget side of the practice flow: after an attempt commits,
// recompute the topic's mastery and credit the awarded XP to the current
// week's league membership. Delivery is at-most-once-and-logged - a failed
// dispatch is retried a bounded number of times and then dropped; it never
// reaches back into the recording request. Lost credit is acceptable,
// double credit is not: the event carries the capped award exactly once.
// ══════════════════════════════════════════════════════════════════════════════

// dispatchTimeout bounds each downstream dispatch including its retries.
const dispatchTimeout = 10 * time.Second

// AttemptRecordedHandler reacts to AttemptRecordedEvent.
type AttemptRecordedHandler struct {
	mastery *command.RecomputeMasteryHandler
	leagues *command.LeagueLifecycle
	retry   retry.Config
	logger  *logger.Logger
}

// NewAttemptRecordedHandler creates an AttemptRecordedHandler.
func NewAttemptRecordedHandler(
	mastery *command.RecomputeMasteryHandler,
	leagues *command.LeagueLifecycle,
	log *logger.Logger,
) *AttemptRecordedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AttemptRecordedHandler{
		mastery: mastery,
		leagues: leagues,
		retry:   retry.DefaultConfig(),
		logger:  log.With(logger.String("handler", "on_attempt_recorded")),
	}
}

// Register subscribes the handler on the bus.
func (h *AttemptRecordedHandler) Register(bus shared.EventBus) error {
	return bus.Subscribe(shared.EventAttemptRecorded, h.Handle)
}

// Handle processes one AttemptRecordedEvent. Both dispatches are idempotent:
// the mastery recompute derives from durable history, and the XP credit is
// applied at most once because a failed event is dropped, not re-published.
func (h *AttemptRecordedHandler) Handle(event shared.Event) error {
	e, ok := event.(*shared.AttemptRecordedEvent)
	if !ok {
		h.logger.Warn("unexpected event payload", logger.String("type", string(event.EventType())))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := retry.Do(ctx, h.retry, func(ctx context.Context) error {
		return h.mastery.Recompute(ctx, e.StudentID, e.TopicID)
	}); err != nil {
		h.logger.Error("mastery recompute dropped",
			logger.String("student_id", e.StudentID),
			logger.String("topic_id", e.TopicID),
			logger.Err(err),
		)
	}

	if e.XPAwarded > 0 {
		if err := retry.Do(ctx, h.retry, func(ctx context.Context) error {
			return h.leagues.CreditXP(ctx, e.StudentID, e.XPAwarded)
		}); err != nil {
			h.logger.Error("league XP credit dropped",
				logger.String("student_id", e.StudentID),
				logger.Int("xp", e.XPAwarded),
				logger.Err(err),
			)
		}
	}

	return nil
}
