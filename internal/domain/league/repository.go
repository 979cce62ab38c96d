package league

import (
	"context"
	"time"
)

// MemberRow is the leaderboard read model: a membership joined with the
// student's display name.
type MemberRow struct {
	MembershipID string
	StudentID    string
	DisplayName  string
	WeeklyXP     int
	Promoted     bool
	Demoted      bool
}

// Repository owns all League and LeagueMembership mutation. No other
// component writes these tables.
type Repository interface {
	// EnsureLeague gets or creates the league row for (tier, weekStart).
	// Concurrent callers receive the same row.
	EnsureLeague(ctx context.Context, tier Tier, weekStart time.Time) (*League, error)

	// EnsureMembership gets or creates the student's membership for the
	// week, placing a new row in the given league. At most one row per
	// (student, week) may ever exist: when a racing creator already opened
	// the week in another league, the returned membership is that winning
	// row and its LeagueID differs from the given one.
	EnsureMembership(ctx context.Context, studentID, leagueID string, weekStart time.Time) (*Membership, error)

	// MembershipForWeek returns the student's membership and league for the
	// week, regardless of tier. Returns shared.ErrMembershipNotFound when
	// the student has no bucket for that week yet.
	MembershipForWeek(ctx context.Context, studentID string, weekStart time.Time) (*Membership, *League, error)

	// CreditXP atomically increments the membership's weekly XP and the
	// student's lifetime XP. Both counters are monotonic; amount is the
	// already-capped per-attempt award.
	CreditXP(ctx context.Context, studentID, membershipID string, amount int) error

	// LeaguesForWeek lists every league row for a week start.
	LeaguesForWeek(ctx context.Context, weekStart time.Time) ([]*League, error)

	// Members lists a league's memberships, unordered.
	Members(ctx context.Context, leagueID string) ([]*Membership, error)

	// MemberBoard lists a league's memberships joined with display names,
	// for the leaderboard view. Unordered; callers rank with RankMembers'
	// rule.
	MemberBoard(ctx context.Context, leagueID string) ([]MemberRow, error)

	// ApplyRolloverOutcome sets the promoted/demoted flags on a membership.
	ApplyRolloverOutcome(ctx context.Context, membershipID string, promoted, demoted bool) error

	// SetStudentTier updates the student's current tier. Tier mutation is
	// owned exclusively by the rollover.
	SetStudentTier(ctx context.Context, studentID string, tier Tier) error

	// MarkRolledOver stamps the league's rollover guard. Returns
	// shared.ErrWeekAlreadyRolled when the guard was already set, so a
	// racing second run backs off.
	MarkRolledOver(ctx context.Context, leagueID string, at time.Time) error
}
