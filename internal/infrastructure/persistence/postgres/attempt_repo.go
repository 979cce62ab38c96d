package postgres

import (
	"context"
	"fmt"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/timeutil"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT LEDGER IMPLEMENTATION
// The atomic write path of the practice flow. Record runs a single
// transaction that locks the student row, so two concurrent submissions for
// the same student serialize and can never both read the same pre-increment
// daily XP. Commit everything or nothing.
// ══════════════════════════════════════════════════════════════════════════════

// AttemptRepository implements practice.AttemptLedger for PostgreSQL.
type AttemptRepository struct {
	conn *Connection
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(conn *Connection) *AttemptRepository {
	return &AttemptRepository{conn: conn}
}

// Record persists the attempt, bumps today's usage log, and settles the
// capped XP award, all in one transaction.
func (r *AttemptRepository) Record(ctx context.Context, attempt *practice.Attempt, rawXP int) (int, error) {
	var awarded int

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		// The student row is the serialization point for (student, day)
		// writes.
		var exists string
		err := tx.QueryRow(ctx, "SELECT id FROM students WHERE id = $1 FOR UPDATE", attempt.StudentID).Scan(&exists)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrStudentNotFound
			}
			return fmt.Errorf("failed to lock student row: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO attempts (
				id, student_id, question_id, topic_id, selected_answer,
				is_correct, time_taken_ms, hint_used, is_bonus_question, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			attempt.ID,
			attempt.StudentID,
			attempt.QuestionID,
			attempt.TopicID,
			attempt.SelectedAnswer,
			attempt.IsCorrect,
			attempt.TimeTakenMs,
			attempt.HintUsed,
			attempt.IsBonusQuestion,
			attempt.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert attempt: %w", err)
		}

		// Upsert today's usage log and read the XP earned so far in the
		// same statement.
		day := timeutil.DayOf(attempt.CreatedAt)
		var xpSoFar int
		err = tx.QueryRow(ctx, `
			INSERT INTO usage_logs (student_id, day, attempted_count, minutes_used, xp_earned)
			VALUES ($1, $2, 1, 0, 0)
			ON CONFLICT (student_id, day)
			DO UPDATE SET attempted_count = usage_logs.attempted_count + 1
			RETURNING xp_earned
		`, attempt.StudentID, day).Scan(&xpSoFar)
		if err != nil {
			return fmt.Errorf("failed to upsert usage log: %w", err)
		}

		awarded = practice.ClampToDailyCap(rawXP, xpSoFar)
		if awarded > 0 {
			_, err = tx.Exec(ctx, `
				UPDATE usage_logs SET xp_earned = xp_earned + $1
				WHERE student_id = $2 AND day = $3
			`, awarded, attempt.StudentID, day)
			if err != nil {
				return fmt.Errorf("failed to settle xp award: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return awarded, nil
}

// StatsByTopic aggregates the full attempt history for one (student, topic)
// key plus the recent correctness window, newest first.
func (r *AttemptRepository) StatsByTopic(ctx context.Context, studentID, topicID string, recentLimit int) (practice.TopicStats, error) {
	var stats practice.TopicStats

	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_correct)
		FROM attempts
		WHERE student_id = $1 AND topic_id = $2
	`, studentID, topicID).Scan(&stats.Attempted, &stats.Correct)
	if err != nil {
		return practice.TopicStats{}, fmt.Errorf("failed to aggregate attempts: %w", err)
	}

	if stats.Attempted == 0 || recentLimit <= 0 {
		return stats, nil
	}

	rows, err := r.conn.Query(ctx, `
		SELECT is_correct
		FROM attempts
		WHERE student_id = $1 AND topic_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, studentID, topicID, recentLimit)
	if err != nil {
		return practice.TopicStats{}, fmt.Errorf("failed to query recent attempts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var correct bool
		if err := rows.Scan(&correct); err != nil {
			return practice.TopicStats{}, fmt.Errorf("failed to scan recent attempt: %w", err)
		}
		stats.Recent = append(stats.Recent, correct)
	}

	return stats, rows.Err()
}
