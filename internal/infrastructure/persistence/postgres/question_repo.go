package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION BANK IMPLEMENTATION
// Read-only access to the seeded content catalog.
// ══════════════════════════════════════════════════════════════════════════════

// QuestionRepository implements practice.QuestionBank for PostgreSQL.
type QuestionRepository struct {
	conn *Connection
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(conn *Connection) *QuestionRepository {
	return &QuestionRepository{conn: conn}
}

// GetTopic returns a topic by ID.
func (r *QuestionRepository) GetTopic(ctx context.Context, topicID string) (*practice.Topic, error) {
	query := `
		SELECT id, title, chapter, display_order
		FROM topics
		WHERE id = $1
	`

	var t practice.Topic
	err := r.conn.QueryRow(ctx, query, topicID).Scan(&t.ID, &t.Title, &t.Chapter, &t.DisplayOrder)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &t, nil
}

// ListByTopic returns every question in a topic, ordered by ID so the
// selector's earliest-id pick is stable across calls.
func (r *QuestionRepository) ListByTopic(ctx context.Context, topicID string) ([]practice.Question, error) {
	query := `
		SELECT id, topic_id, sub_topic, difficulty, answer_key, steps, created_at
		FROM questions
		WHERE topic_id = $1
		ORDER BY id ASC
	`

	rows, err := r.conn.Query(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// ListByTopicExcluding returns the topic's questions minus the given IDs.
func (r *QuestionRepository) ListByTopicExcluding(ctx context.Context, topicID string, excludeIDs []string) ([]practice.Question, error) {
	if len(excludeIDs) == 0 {
		return r.ListByTopic(ctx, topicID)
	}

	query := `
		SELECT id, topic_id, sub_topic, difficulty, answer_key, steps, created_at
		FROM questions
		WHERE topic_id = $1 AND NOT (id = ANY($2))
		ORDER BY id ASC
	`

	rows, err := r.conn.Query(ctx, query, topicID, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions excluding: %w", err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// scanQuestions scans question rows including the JSONB solution steps.
func scanQuestions(rows pgx.Rows) ([]practice.Question, error) {
	var questions []practice.Question
	for rows.Next() {
		var q practice.Question
		var stepsJSON []byte

		err := rows.Scan(&q.ID, &q.TopicID, &q.SubTopic, &q.Difficulty, &q.AnswerKey, &stepsJSON, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}

		if len(stepsJSON) > 0 {
			if err := json.Unmarshal(stepsJSON, &q.Steps); err != nil {
				return nil, fmt.Errorf("failed to unmarshal solution steps: %w", err)
			}
		}

		questions = append(questions, q)
	}
	return questions, rows.Err()
}
