package query

import (
	"context"
	"strings"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK USAGE QUERY
// The pre-session gate: same day-boundary reasoning as the heartbeat, but
// read-only.
// ══════════════════════════════════════════════════════════════════════════════

// CheckUsageQuery identifies the student to check.
type CheckUsageQuery struct {
	StudentID string
}

// Validate validates the query.
func (q CheckUsageQuery) Validate() error {
	if strings.TrimSpace(q.StudentID) == "" {
		return shared.NewDomainError("practice", "CheckUsage", shared.ErrInvalidInput, "student_id is required")
	}
	return nil
}

// CheckUsageHandler handles CheckUsageQuery.
type CheckUsageHandler struct {
	usage practice.UsageStore

	// now is swappable for tests.
	now func() time.Time
}

// NewCheckUsageHandler creates a CheckUsageHandler.
func NewCheckUsageHandler(usage practice.UsageStore) *CheckUsageHandler {
	return &CheckUsageHandler{
		usage: usage,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle evaluates the gate without mutating any counters.
func (h *CheckUsageHandler) Handle(ctx context.Context, q CheckUsageQuery) (practice.GateStatus, error) {
	if err := q.Validate(); err != nil {
		return practice.GateStatus{}, err
	}
	return h.usage.Check(ctx, q.StudentID, h.now())
}
