package command

import (
	"context"
	"strings"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEARTBEAT COMMAND
// One tick of the usage gate, sent once per minute of active session. The
// store serializes the day-boundary read-modify-write per student, so
// concurrent heartbeats and the midnight rollover stay race-free.
// ══════════════════════════════════════════════════════════════════════════════

// HeartbeatCommand identifies the student whose session is ticking.
type HeartbeatCommand struct {
	StudentID string
}

// Validate validates the command.
func (c HeartbeatCommand) Validate() error {
	if strings.TrimSpace(c.StudentID) == "" {
		return shared.NewDomainError("practice", "Heartbeat", shared.ErrInvalidInput, "student_id is required")
	}
	return nil
}

// HeartbeatHandler handles HeartbeatCommand.
type HeartbeatHandler struct {
	usage  practice.UsageStore
	logger *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewHeartbeatHandler creates a HeartbeatHandler.
func NewHeartbeatHandler(usage practice.UsageStore, log *logger.Logger) *HeartbeatHandler {
	if log == nil {
		log = logger.Default()
	}
	return &HeartbeatHandler{
		usage:  usage,
		logger: log.With(logger.String("handler", "heartbeat")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle applies one heartbeat minute and returns the gate decision.
func (h *HeartbeatHandler) Handle(ctx context.Context, cmd HeartbeatCommand) (practice.GateStatus, error) {
	if err := cmd.Validate(); err != nil {
		return practice.GateStatus{}, err
	}

	status, err := h.usage.Heartbeat(ctx, cmd.StudentID, h.now())
	if err != nil {
		return practice.GateStatus{}, err
	}

	if !status.Allowed {
		h.logger.Info("daily usage limit reached",
			logger.String("student_id", cmd.StudentID),
			logger.Int("used", status.Used),
			logger.Int("limit", status.Limit),
		)
	}
	return status, nil
}
