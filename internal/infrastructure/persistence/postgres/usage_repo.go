package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/timeutil"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// USAGE STORE IMPLEMENTATION
// The usage gate's heartbeat path. The student row holds the authoritative
// daily counters; Heartbeat locks it, applies the day-boundary Tick, and
// writes everything back in one transaction. Crossing a UTC midnight under
// concurrent heartbeats therefore resets the counter exactly once.
// ══════════════════════════════════════════════════════════════════════════════

// UsageRepository implements practice.UsageStore for PostgreSQL.
type UsageRepository struct {
	conn *Connection
}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(conn *Connection) *UsageRepository {
	return &UsageRepository{conn: conn}
}

// Heartbeat adds one minute of usage and returns the gate decision.
func (r *UsageRepository) Heartbeat(ctx context.Context, studentID string, now time.Time) (practice.GateStatus, error) {
	var status practice.GateStatus

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		counters, limit, err := lockCounters(ctx, tx, studentID)
		if err != nil {
			return err
		}

		counters = practice.Tick(counters, now)

		_, err = tx.Exec(ctx, `
			UPDATE students SET
				last_active_date = $1,
				daily_usage_minutes = $2,
				streak_days = $3,
				updated_at = NOW()
			WHERE id = $4
		`, counters.LastActiveDate, counters.DailyUsageMinutes, counters.StreakDays, studentID)
		if err != nil {
			return fmt.Errorf("failed to write back counters: %w", err)
		}

		// Mirror the minute into the per-day usage log for reporting.
		day := timeutil.DayOf(now)
		_, err = tx.Exec(ctx, `
			INSERT INTO usage_logs (student_id, day, attempted_count, minutes_used, xp_earned)
			VALUES ($1, $2, 0, 1, 0)
			ON CONFLICT (student_id, day)
			DO UPDATE SET minutes_used = usage_logs.minutes_used + 1
		`, studentID, day)
		if err != nil {
			return fmt.Errorf("failed to upsert usage log: %w", err)
		}

		status = practice.GateFor(counters, limit, now)
		return nil
	})
	if err != nil {
		return practice.GateStatus{}, err
	}

	return status, nil
}

// Check evaluates the gate without mutating anything.
func (r *UsageRepository) Check(ctx context.Context, studentID string, now time.Time) (practice.GateStatus, error) {
	query := `
		SELECT last_active_date, daily_usage_minutes, streak_days, daily_limit_minutes
		FROM students
		WHERE id = $1
	`

	var counters practice.DailyCounters
	var lastActive *time.Time
	var limit int

	err := r.conn.QueryRow(ctx, query, studentID).Scan(
		&lastActive, &counters.DailyUsageMinutes, &counters.StreakDays, &limit,
	)
	if err != nil {
		if IsNoRows(err) {
			return practice.GateStatus{}, shared.ErrStudentNotFound
		}
		return practice.GateStatus{}, fmt.Errorf("failed to read counters: %w", err)
	}

	if lastActive != nil {
		counters.LastActiveDate = *lastActive
	}
	return practice.GateFor(counters, limit, now), nil
}

// lockCounters reads the student's daily counters under FOR UPDATE.
func lockCounters(ctx context.Context, tx pgx.Tx, studentID string) (practice.DailyCounters, int, error) {
	var counters practice.DailyCounters
	var lastActive *time.Time
	var limit int

	err := tx.QueryRow(ctx, `
		SELECT last_active_date, daily_usage_minutes, streak_days, daily_limit_minutes
		FROM students
		WHERE id = $1
		FOR UPDATE
	`, studentID).Scan(&lastActive, &counters.DailyUsageMinutes, &counters.StreakDays, &limit)
	if err != nil {
		if IsNoRows(err) {
			return practice.DailyCounters{}, 0, shared.ErrStudentNotFound
		}
		return practice.DailyCounters{}, 0, fmt.Errorf("failed to lock counters: %w", err)
	}

	if lastActive != nil {
		counters.LastActiveDate = *lastActive
	}
	return counters, limit, nil
}
