package postgres

import (
	"context"
	"fmt"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements practice.ProgressRepository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// Get returns the progress row for a (student, topic) key.
func (r *ProgressRepository) Get(ctx context.Context, studentID, topicID string) (*practice.Progress, error) {
	query := `
		SELECT student_id, topic_id, attempted, correct, mastery, updated_at
		FROM progress
		WHERE student_id = $1 AND topic_id = $2
	`

	var p practice.Progress
	err := r.conn.QueryRow(ctx, query, studentID, topicID).Scan(
		&p.StudentID, &p.TopicID, &p.Attempted, &p.Correct, &p.Mastery, &p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &p, nil
}

// Upsert creates or replaces the progress row for its key. The whole row is
// written, matching the recompute's derive-from-history semantics.
func (r *ProgressRepository) Upsert(ctx context.Context, p *practice.Progress) error {
	query := `
		INSERT INTO progress (student_id, topic_id, attempted, correct, mastery, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, topic_id)
		DO UPDATE SET
			attempted = EXCLUDED.attempted,
			correct = EXCLUDED.correct,
			mastery = EXCLUDED.mastery,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		p.StudentID, p.TopicID, p.Attempted, p.Correct, string(p.Mastery), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}
