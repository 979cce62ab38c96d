package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/league"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/timeutil"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEAGUE REPOSITORY IMPLEMENTATION
// Get-or-create rows lean on the UNIQUE(tier, week_start) and
// UNIQUE(student_id, week_start) constraints: insert ON CONFLICT DO NOTHING,
// then re-select, so concurrent callers always land on one row. The rollover
// guard is a conditional update on rolled_over_at.
// ══════════════════════════════════════════════════════════════════════════════

// LeagueRepository implements league.Repository for PostgreSQL.
type LeagueRepository struct {
	conn *Connection
}

// NewLeagueRepository creates a new LeagueRepository.
func NewLeagueRepository(conn *Connection) *LeagueRepository {
	return &LeagueRepository{conn: conn}
}

// EnsureLeague gets or creates the league row for (tier, weekStart).
func (r *LeagueRepository) EnsureLeague(ctx context.Context, tier league.Tier, weekStart time.Time) (*league.League, error) {
	day := timeutil.DayOf(weekStart)

	_, err := r.conn.Exec(ctx, `
		INSERT INTO leagues (tier, week_start)
		VALUES ($1, $2)
		ON CONFLICT (tier, week_start) DO NOTHING
	`, int(tier), day)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure league: %w", err)
	}

	return r.getLeagueByKey(ctx, tier, day)
}

// EnsureMembership gets or creates the student's membership for the week.
// The re-select is by (student, week), not by league: when a concurrent
// creator inserted the week's row into a different tier's league first, the
// conflict clause swallows our insert and the winning row comes back.
func (r *LeagueRepository) EnsureMembership(ctx context.Context, studentID, leagueID string, weekStart time.Time) (*league.Membership, error) {
	day := timeutil.DayOf(weekStart)

	_, err := r.conn.Exec(ctx, `
		INSERT INTO league_memberships (student_id, league_id, week_start)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, week_start) DO NOTHING
	`, studentID, leagueID, day)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to ensure membership: %w", err)
	}

	row := r.conn.QueryRow(ctx, `
		SELECT id, student_id, league_id, week_start, weekly_xp, promoted, demoted, created_at
		FROM league_memberships
		WHERE student_id = $1 AND week_start = $2
	`, studentID, day)
	return scanMembership(row)
}

// MembershipForWeek returns the student's membership and league for the week.
func (r *LeagueRepository) MembershipForWeek(ctx context.Context, studentID string, weekStart time.Time) (*league.Membership, *league.League, error) {
	query := `
		SELECT m.id, m.student_id, m.league_id, m.week_start, m.weekly_xp, m.promoted, m.demoted, m.created_at,
			   l.id, l.tier, l.week_start, l.rolled_over_at, l.created_at
		FROM league_memberships m
		JOIN leagues l ON l.id = m.league_id
		WHERE m.student_id = $1 AND m.week_start = $2
	`

	var m league.Membership
	var lg league.League
	var tier int

	err := r.conn.QueryRow(ctx, query, studentID, timeutil.DayOf(weekStart)).Scan(
		&m.ID, &m.StudentID, &m.LeagueID, &m.WeekStart, &m.WeeklyXP, &m.Promoted, &m.Demoted, &m.CreatedAt,
		&lg.ID, &tier, &lg.WeekStart, &lg.RolledOverAt, &lg.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil, shared.ErrMembershipNotFound
		}
		return nil, nil, fmt.Errorf("failed to get membership for week: %w", err)
	}

	lg.Tier = league.Tier(tier)
	return &m, &lg, nil
}

// CreditXP atomically increments the membership's weekly XP and the student's
// lifetime XP in one transaction.
func (r *LeagueRepository) CreditXP(ctx context.Context, studentID, membershipID string, amount int) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE league_memberships SET weekly_xp = weekly_xp + $1
			WHERE id = $2
		`, amount, membershipID)
		if err != nil {
			return fmt.Errorf("failed to credit weekly xp: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrMembershipNotFound
		}

		tag, err = tx.Exec(ctx, `
			UPDATE students SET lifetime_xp = lifetime_xp + $1, updated_at = NOW()
			WHERE id = $2
		`, amount, studentID)
		if err != nil {
			return fmt.Errorf("failed to credit lifetime xp: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrStudentNotFound
		}

		return nil
	})
}

// LeaguesForWeek lists every league row for a week start.
func (r *LeagueRepository) LeaguesForWeek(ctx context.Context, weekStart time.Time) ([]*league.League, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, tier, week_start, rolled_over_at, created_at
		FROM leagues
		WHERE week_start = $1
		ORDER BY tier ASC
	`, timeutil.DayOf(weekStart))
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []*league.League
	for rows.Next() {
		lg, err := scanLeague(rows)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, lg)
	}
	return leagues, rows.Err()
}

// Members lists a league's memberships, unordered.
func (r *LeagueRepository) Members(ctx context.Context, leagueID string) ([]*league.Membership, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, student_id, league_id, week_start, weekly_xp, promoted, demoted, created_at
		FROM league_memberships
		WHERE league_id = $1
	`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*league.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// MemberBoard lists a league's memberships joined with display names.
func (r *LeagueRepository) MemberBoard(ctx context.Context, leagueID string) ([]league.MemberRow, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT m.id, m.student_id, s.display_name, m.weekly_xp, m.promoted, m.demoted
		FROM league_memberships m
		JOIN students s ON s.id = m.student_id
		WHERE m.league_id = $1
	`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member board: %w", err)
	}
	defer rows.Close()

	var board []league.MemberRow
	for rows.Next() {
		var row league.MemberRow
		err := rows.Scan(&row.MembershipID, &row.StudentID, &row.DisplayName, &row.WeeklyXP, &row.Promoted, &row.Demoted)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		board = append(board, row)
	}
	return board, rows.Err()
}

// ApplyRolloverOutcome sets the promoted/demoted flags on a membership.
func (r *LeagueRepository) ApplyRolloverOutcome(ctx context.Context, membershipID string, promoted, demoted bool) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE league_memberships SET promoted = $1, demoted = $2
		WHERE id = $3
	`, promoted, demoted, membershipID)
	if err != nil {
		return fmt.Errorf("failed to apply rollover outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrMembershipNotFound
	}
	return nil
}

// SetStudentTier updates the student's current tier.
func (r *LeagueRepository) SetStudentTier(ctx context.Context, studentID string, tier league.Tier) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE students SET current_tier = $1, updated_at = NOW()
		WHERE id = $2
	`, int(tier), studentID)
	if err != nil {
		return fmt.Errorf("failed to set student tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStudentNotFound
	}
	return nil
}

// MarkRolledOver stamps the league's rollover guard. The WHERE clause makes
// the claim conditional: zero rows affected means another run already holds
// the guard.
func (r *LeagueRepository) MarkRolledOver(ctx context.Context, leagueID string, at time.Time) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE leagues SET rolled_over_at = $1
		WHERE id = $2 AND rolled_over_at IS NULL
	`, at, leagueID)
	if err != nil {
		return fmt.Errorf("failed to mark league rolled over: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrWeekAlreadyRolled
	}
	return nil
}

// getLeagueByKey fetches a league by its natural key.
func (r *LeagueRepository) getLeagueByKey(ctx context.Context, tier league.Tier, weekStart time.Time) (*league.League, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, tier, week_start, rolled_over_at, created_at
		FROM leagues
		WHERE tier = $1 AND week_start = $2
	`, int(tier), weekStart)

	lg, err := scanLeague(row)
	if err != nil {
		return nil, err
	}
	return lg, nil
}

// scanLeague scans one league row.
func scanLeague(row pgx.Row) (*league.League, error) {
	var lg league.League
	var tier int

	err := row.Scan(&lg.ID, &tier, &lg.WeekStart, &lg.RolledOverAt, &lg.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to scan league: %w", err)
	}

	lg.Tier = league.Tier(tier)
	return &lg, nil
}

// scanMembership scans one membership row.
func scanMembership(row pgx.Row) (*league.Membership, error) {
	var m league.Membership

	err := row.Scan(&m.ID, &m.StudentID, &m.LeagueID, &m.WeekStart, &m.WeeklyXP, &m.Promoted, &m.Demoted, &m.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}
	return &m, nil
}
