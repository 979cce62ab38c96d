package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/internal/domain/student"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

// Create creates a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (
			id, display_name, grade, lifetime_xp, current_tier, streak_days,
			last_active_date, daily_usage_minutes, daily_limit_minutes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var lastActive *time.Time
	if !s.LastActiveDate.IsZero() {
		lastActive = &s.LastActiveDate
	}

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.DisplayName,
		s.Grade,
		s.LifetimeXP,
		s.CurrentTier,
		s.StreakDays,
		lastActive,
		s.DailyUsageMinutes,
		s.DailyLimitMinutes,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrStudentAlreadyExists
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID returns a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := `
		SELECT id, display_name, grade, lifetime_xp, current_tier, streak_days,
			   last_active_date, daily_usage_minutes, daily_limit_minutes,
			   created_at, updated_at
		FROM students
		WHERE id = $1
	`

	return scanStudent(r.conn.QueryRow(ctx, query, id))
}

// Exists reports whether a student with the given ID exists.
func (r *StudentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check student existence: %w", err)
	}
	return exists, nil
}

// TopByLifetimeXP returns the lifetime-XP ranking, highest first, ties broken
// by student ID so the order is stable.
func (r *StudentRepository) TopByLifetimeXP(ctx context.Context, limit int) ([]student.RankedEntry, error) {
	query := `
		SELECT id, display_name, lifetime_xp
		FROM students
		ORDER BY lifetime_xp DESC, id ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top students: %w", err)
	}
	defer rows.Close()

	var entries []student.RankedEntry
	for rows.Next() {
		var entry student.RankedEntry
		if err := rows.Scan(&entry.StudentID, &entry.DisplayName, &entry.LifetimeXP); err != nil {
			return nil, fmt.Errorf("failed to scan ranked entry: %w", err)
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// CountWithMoreXP counts students holding strictly more lifetime XP. Used for
// the count-above rank fallback when a caller is outside the cached top slice.
func (r *StudentRepository) CountWithMoreXP(ctx context.Context, xp int64) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM students WHERE lifetime_xp > $1", xp).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count students above: %w", err)
	}
	return count, nil
}

// scanStudent scans one student row.
func scanStudent(row pgx.Row) (*student.Student, error) {
	var s student.Student
	var lastActive *time.Time

	err := row.Scan(
		&s.ID,
		&s.DisplayName,
		&s.Grade,
		&s.LifetimeXP,
		&s.CurrentTier,
		&s.StreakDays,
		&lastActive,
		&s.DailyUsageMinutes,
		&s.DailyLimitMinutes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	if lastActive != nil {
		s.LastActiveDate = *lastActive
	}
	return &s, nil
}
