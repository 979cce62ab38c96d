package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
)

// fakeBank is an in-memory QuestionBank over a fixed catalog.
type fakeBank struct {
	questions []practice.Question
}

func (b *fakeBank) GetTopic(_ context.Context, topicID string) (*practice.Topic, error) {
	for _, q := range b.questions {
		if q.TopicID == topicID {
			return &practice.Topic{ID: topicID, Title: "Topic " + topicID}, nil
		}
	}
	return nil, shared.ErrTopicNotFound
}

func (b *fakeBank) ListByTopic(_ context.Context, topicID string) ([]practice.Question, error) {
	var out []practice.Question
	for _, q := range b.questions {
		if q.TopicID == topicID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (b *fakeBank) ListByTopicExcluding(ctx context.Context, topicID string, excludeIDs []string) ([]practice.Question, error) {
	pool, err := b.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	return practice.ExcludeQuestions(pool, excludeIDs), nil
}

// fakeProgress serves fixed mastery labels per (student, topic) key.
type fakeProgress struct {
	mastery map[string]practice.Mastery
}

func (r *fakeProgress) Get(_ context.Context, studentID, topicID string) (*practice.Progress, error) {
	m, ok := r.mastery[studentID+"|"+topicID]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return &practice.Progress{StudentID: studentID, TopicID: topicID, Mastery: m}, nil
}

func (r *fakeProgress) Upsert(_ context.Context, p *practice.Progress) error {
	r.mastery[p.StudentID+"|"+p.TopicID] = p.Mastery
	return nil
}

func q(id, topicID string, difficulty practice.Difficulty) practice.Question {
	return practice.Question{ID: id, TopicID: topicID, Difficulty: difficulty}
}

func catalogBank() *fakeBank {
	return &fakeBank{questions: []practice.Question{
		q("q1", "t1", practice.DifficultyEasy),
		q("q2", "t1", practice.DifficultyEasy),
		q("q3", "t1", practice.DifficultyMedium),
		q("q4", "t1", practice.DifficultyHard),
	}}
}

func TestNextQuestion_NewStudentGetsEasiest(t *testing.T) {
	handler := NewNextQuestionHandler(catalogBank(), &fakeProgress{mastery: map[string]practice.Mastery{}})

	picked, err := handler.Handle(context.Background(), NextQuestionQuery{StudentID: "s1", TopicID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "q1", picked.ID)
	assert.Equal(t, practice.DifficultyEasy, picked.Difficulty)
}

func TestNextQuestion_MasteryRaisesDifficulty(t *testing.T) {
	progress := &fakeProgress{mastery: map[string]practice.Mastery{
		"s1|t1": practice.MasteryMastered,
	}}
	handler := NewNextQuestionHandler(catalogBank(), progress)

	picked, err := handler.Handle(context.Background(), NextQuestionQuery{StudentID: "s1", TopicID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, practice.DifficultyHard, picked.Difficulty)
}

func TestNextQuestion_WrongStreakEasesOff(t *testing.T) {
	progress := &fakeProgress{mastery: map[string]practice.Mastery{
		"s1|t1": practice.MasteryPracticing,
	}}
	handler := NewNextQuestionHandler(catalogBank(), progress)

	picked, err := handler.Handle(context.Background(), NextQuestionQuery{
		StudentID:        "s1",
		TopicID:          "t1",
		ConsecutiveWrong: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, practice.DifficultyEasy, picked.Difficulty)
}

func TestNextQuestion_ExclusionIsSoft(t *testing.T) {
	handler := NewNextQuestionHandler(catalogBank(), &fakeProgress{mastery: map[string]practice.Mastery{}})

	// q1 excluded: next easy question is served.
	picked, err := handler.Handle(context.Background(), NextQuestionQuery{
		StudentID:  "s1",
		TopicID:    "t1",
		ExcludeIDs: []string{"q1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "q2", picked.ID)

	// Everything excluded: the exclusion list is dropped rather than
	// returning nothing.
	picked, err = handler.Handle(context.Background(), NextQuestionQuery{
		StudentID:  "s1",
		TopicID:    "t1",
		ExcludeIDs: []string{"q1", "q2", "q3", "q4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "q1", picked.ID)
}

func TestNextQuestion_Deterministic(t *testing.T) {
	handler := NewNextQuestionHandler(catalogBank(), &fakeProgress{mastery: map[string]practice.Mastery{}})

	query := NextQuestionQuery{StudentID: "s1", TopicID: "t1", ConsecutiveRight: 2}
	first, err := handler.Handle(context.Background(), query)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := handler.Handle(context.Background(), query)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestNextQuestion_EmptyTopic(t *testing.T) {
	handler := NewNextQuestionHandler(&fakeBank{}, &fakeProgress{mastery: map[string]practice.Mastery{}})

	_, err := handler.Handle(context.Background(), NextQuestionQuery{StudentID: "s1", TopicID: "empty"})
	assert.ErrorIs(t, err, shared.ErrNoQuestionAvailable)
}

func TestNextQuestion_Validation(t *testing.T) {
	handler := NewNextQuestionHandler(catalogBank(), &fakeProgress{mastery: map[string]practice.Mastery{}})

	_, err := handler.Handle(context.Background(), NextQuestionQuery{TopicID: "t1"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = handler.Handle(context.Background(), NextQuestionQuery{StudentID: "s1", TopicID: "t1", ConsecutiveWrong: -1})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
