// Package jobs contains the scheduled job implementations.
package jobs

import (
	"context"

	"github.com/mathhive/math-practice-hub/internal/application/command"
	"github.com/mathhive/math-practice-hub/pkg/logger"
)

// BoardInvalidator drops cached weekly boards after tiers change.
type BoardInvalidator interface {
	InvalidateBoards(ctx context.Context) error
}

// LeagueRolloverJob closes the previous week's leagues every Monday shortly
// after midnight UTC. The underlying service is idempotent, so a crashed or
// repeated run is harmless.
type LeagueRolloverJob struct {
	lifecycle *command.LeagueLifecycle
	boards    BoardInvalidator
	logger    *logger.Logger
}

// NewLeagueRolloverJob creates a LeagueRolloverJob. boards may be nil when no
// cache is configured.
func NewLeagueRolloverJob(lifecycle *command.LeagueLifecycle, boards BoardInvalidator, log *logger.Logger) *LeagueRolloverJob {
	if log == nil {
		log = logger.Default()
	}
	return &LeagueRolloverJob{
		lifecycle: lifecycle,
		boards:    boards,
		logger:    log.With(logger.String("job", "league_rollover")),
	}
}

// Name returns the unique name of the job.
func (j *LeagueRolloverJob) Name() string {
	return "league_rollover"
}

// Description returns a human-readable description of the job.
func (j *LeagueRolloverJob) Description() string {
	return "Closes last week's leagues: promotes, demotes, and opens the new week"
}

// Run executes one rollover pass.
func (j *LeagueRolloverJob) Run(ctx context.Context) error {
	summary, err := j.lifecycle.Rollover(ctx)
	if err != nil {
		return err
	}

	j.logger.Info("rollover pass finished",
		logger.Time("week", summary.Week),
		logger.Int("processed", summary.LeaguesProcessed),
		logger.Int("skipped", summary.LeaguesSkipped),
		logger.Int("failed", summary.LeaguesFailed),
		logger.Int("promoted", summary.MembersPromoted),
		logger.Int("demoted", summary.MembersDemoted),
	)

	// Stale boards still show last week's promote/demote markers. Dropping
	// them is best effort; the TTL bounds the damage if this fails.
	if j.boards != nil && summary.LeaguesProcessed > 0 {
		if err := j.boards.InvalidateBoards(ctx); err != nil {
			j.logger.Warn("failed to invalidate cached boards", logger.Err(err))
		}
	}
	return nil
}
