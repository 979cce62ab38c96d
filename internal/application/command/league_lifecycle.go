package command

import (
	"context"
	"errors"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/league"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/internal/domain/student"
	"github.com/mathhive/math-practice-hub/pkg/logger"
	"github.com/mathhive/math-practice-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEAGUE LIFECYCLE
// Weekly membership assignment, XP accrual, and the scheduled
// promotion/demotion rollover. This service exclusively owns League and
// LeagueMembership mutation.
// ══════════════════════════════════════════════════════════════════════════════

// RolloverSummary reports what one rollover run processed.
type RolloverSummary struct {
	Week             time.Time `json:"week"`
	LeaguesProcessed int       `json:"leagues_processed"`
	LeaguesSkipped   int       `json:"leagues_skipped"`
	LeaguesFailed    int       `json:"leagues_failed"`
	MembersPromoted  int       `json:"members_promoted"`
	MembersDemoted   int       `json:"members_demoted"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
}

// LeagueLifecycle manages weekly leagues end to end.
type LeagueLifecycle struct {
	leagues   league.Repository
	students  student.Repository
	publisher shared.EventPublisher
	logger    *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewLeagueLifecycle creates a LeagueLifecycle.
func NewLeagueLifecycle(
	leagues league.Repository,
	students student.Repository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *LeagueLifecycle {
	if log == nil {
		log = logger.Default()
	}
	return &LeagueLifecycle{
		leagues:   leagues,
		students:  students,
		publisher: publisher,
		logger:    log.With(logger.String("service", "league_lifecycle")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnsureMembership gets or creates the student's membership for the current
// week at their current tier. Idempotent: concurrent callers land on the one
// row the uniqueness constraints allow.
func (l *LeagueLifecycle) EnsureMembership(ctx context.Context, studentID string) (*league.Membership, *league.League, error) {
	week := timeutil.WeekStart(l.now())

	// A membership created earlier this week wins even if the tier on the
	// student row has since changed: one bucket per (student, week).
	membership, lg, err := l.leagues.MembershipForWeek(ctx, studentID, week)
	if err == nil {
		return membership, lg, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, nil, err
	}

	s, err := l.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}

	tier := league.Tier(s.CurrentTier)
	if !tier.IsValid() {
		tier = league.MinTier
	}

	lg, err = l.leagues.EnsureLeague(ctx, tier, week)
	if err != nil {
		return nil, nil, err
	}
	membership, err = l.leagues.EnsureMembership(ctx, studentID, lg.ID, week)
	if err != nil {
		return nil, nil, err
	}
	if membership.LeagueID != lg.ID {
		// Lost the creation race to a concurrent caller that read a
		// different tier; resolve to the league holding the winning row.
		return l.leagues.MembershipForWeek(ctx, studentID, week)
	}
	return membership, lg, nil
}

// CreditXP adds an already-capped XP award to the student's current-week
// membership and lifetime total. Amount is credited once, exactly as given.
func (l *LeagueLifecycle) CreditXP(ctx context.Context, studentID string, amount int) error {
	if amount <= 0 {
		return nil
	}

	membership, _, err := l.EnsureMembership(ctx, studentID)
	if err != nil {
		return err
	}
	return l.leagues.CreditXP(ctx, studentID, membership.ID, amount)
}

// Rollover closes the previous week's leagues: ranks members by weekly XP,
// promotes the top slice, demotes the bottom slice, creates next-week
// memberships at the resulting tiers, and stamps the per-league guard.
// Safe to re-run: already-stamped leagues are skipped, and a racing second
// run backs off when the guard it tries to set is already taken.
// Per-league failures are logged and the run continues.
func (l *LeagueLifecycle) Rollover(ctx context.Context) (*RolloverSummary, error) {
	now := l.now()
	closedWeek := timeutil.PreviousWeekStart(now)
	newWeek := timeutil.WeekStart(now)

	summary := &RolloverSummary{Week: closedWeek, StartedAt: now}
	defer func() { summary.CompletedAt = time.Now().UTC() }()

	leagues, err := l.leagues.LeaguesForWeek(ctx, closedWeek)
	if err != nil {
		return summary, shared.WrapError("league", "Rollover", shared.ErrInternal, "failed to list leagues", err)
	}

	for _, lg := range leagues {
		if lg.RolledOverAt != nil {
			summary.LeaguesSkipped++
			continue
		}

		promoted, demoted, err := l.rolloverLeague(ctx, lg, newWeek, now)
		if err != nil {
			if errors.Is(err, shared.ErrAlreadyProcessed) {
				summary.LeaguesSkipped++
				continue
			}
			summary.LeaguesFailed++
			l.logger.Error("league rollover failed",
				logger.String("league_id", lg.ID),
				logger.Int("tier", int(lg.Tier)),
				logger.Err(err),
			)
			continue
		}

		summary.LeaguesProcessed++
		summary.MembersPromoted += promoted
		summary.MembersDemoted += demoted
	}

	l.logger.Info("league rollover completed",
		logger.Time("week", closedWeek),
		logger.Int("processed", summary.LeaguesProcessed),
		logger.Int("skipped", summary.LeaguesSkipped),
		logger.Int("failed", summary.LeaguesFailed),
		logger.Int("promoted", summary.MembersPromoted),
		logger.Int("demoted", summary.MembersDemoted),
	)
	return summary, nil
}

// rolloverLeague processes one league of the closed week.
func (l *LeagueLifecycle) rolloverLeague(ctx context.Context, lg *league.League, newWeek time.Time, now time.Time) (promoted, demoted int, err error) {
	// Claim the guard first so a racing run processes each league at most
	// once. Credits arriving from here on land in the next week's
	// membership, which is the documented eventual behavior.
	if err := l.leagues.MarkRolledOver(ctx, lg.ID, now); err != nil {
		return 0, 0, err
	}

	members, err := l.leagues.Members(ctx, lg.ID)
	if err != nil {
		return 0, 0, err
	}
	if len(members) == 0 {
		return 0, 0, nil
	}

	league.RankMembers(members)
	promoteCount, demoteCount := league.PromoteDemoteCounts(len(members))

	for rank, m := range members {
		isPromoted := rank < promoteCount
		isDemoted := rank >= len(members)-demoteCount && !isPromoted

		nextTier := lg.Tier
		switch {
		case isPromoted:
			nextTier = lg.Tier.Promoted()
		case isDemoted:
			nextTier = lg.Tier.Demoted()
		}

		if isPromoted || isDemoted {
			if err := l.leagues.ApplyRolloverOutcome(ctx, m.ID, isPromoted, isDemoted); err != nil {
				return promoted, demoted, err
			}
		}

		// Open the next week at the resulting tier before touching the
		// student row: a credit racing in mid-rollover then finds this
		// membership instead of creating one from the stale tier. The
		// (student, week) uniqueness backstops whichever side inserts
		// first.
		nextLeague, err := l.leagues.EnsureLeague(ctx, nextTier, newWeek)
		if err != nil {
			return promoted, demoted, err
		}
		if _, err := l.leagues.EnsureMembership(ctx, m.StudentID, nextLeague.ID, newWeek); err != nil {
			return promoted, demoted, err
		}

		if err := l.leagues.SetStudentTier(ctx, m.StudentID, nextTier); err != nil {
			return promoted, demoted, err
		}

		if isPromoted {
			promoted++
		}
		if isDemoted {
			demoted++
		}
	}

	if l.publisher != nil {
		event := shared.NewWeekRolledOverEvent(lg.ID, int(lg.Tier), lg.WeekStart, promoted, demoted)
		if err := l.publisher.Publish(event); err != nil {
			l.logger.Warn("failed to publish rollover event", logger.Err(err))
		}
	}
	return promoted, demoted, nil
}
