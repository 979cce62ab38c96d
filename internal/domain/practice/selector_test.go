package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetDifficulty_MasteryBias(t *testing.T) {
	assert.Equal(t, DifficultyEasy, TargetDifficulty(MasteryNotStarted, 0, 0))
	assert.Equal(t, DifficultyMedium, TargetDifficulty(MasteryPracticing, 0, 0))
	assert.Equal(t, DifficultyHard, TargetDifficulty(MasteryMastered, 0, 0))
}

func TestTargetDifficulty_StreakShifts(t *testing.T) {
	// A wrong streak steps down, a right streak steps up, both bounded.
	assert.Equal(t, DifficultyEasy, TargetDifficulty(MasteryPracticing, 2, 0))
	assert.Equal(t, DifficultyHard, TargetDifficulty(MasteryPracticing, 0, 2))

	// Bounded at the ends of the scale.
	assert.Equal(t, DifficultyEasy, TargetDifficulty(MasteryNotStarted, 3, 0))
	assert.Equal(t, DifficultyHard, TargetDifficulty(MasteryMastered, 0, 5))

	// Below the threshold nothing shifts.
	assert.Equal(t, DifficultyMedium, TargetDifficulty(MasteryPracticing, 1, 1))
}

func TestPickQuestion_PrefersTargetDifficulty(t *testing.T) {
	pool := []Question{
		{ID: "q3", Difficulty: DifficultyHard},
		{ID: "q1", Difficulty: DifficultyEasy},
		{ID: "q2", Difficulty: DifficultyMedium},
	}

	picked := PickQuestion(pool, DifficultyMedium)
	assert.NotNil(t, picked)
	assert.Equal(t, "q2", picked.ID)
}

func TestPickQuestion_FallsBackToAnyDifficulty(t *testing.T) {
	pool := []Question{
		{ID: "q2", Difficulty: DifficultyHard},
		{ID: "q1", Difficulty: DifficultyEasy},
	}

	// No medium question: the stable earliest-id candidate wins.
	picked := PickQuestion(pool, DifficultyMedium)
	assert.NotNil(t, picked)
	assert.Equal(t, "q1", picked.ID)
}

func TestPickQuestion_EmptyPool(t *testing.T) {
	assert.Nil(t, PickQuestion(nil, DifficultyEasy))
}

func TestPickQuestion_Deterministic(t *testing.T) {
	pool := []Question{
		{ID: "q5", Difficulty: DifficultyEasy},
		{ID: "q4", Difficulty: DifficultyEasy},
		{ID: "q6", Difficulty: DifficultyEasy},
	}

	first := PickQuestion(pool, DifficultyEasy)
	second := PickQuestion(pool, DifficultyEasy)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "q4", first.ID)
}

func TestExcludeQuestions(t *testing.T) {
	pool := []Question{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}}

	kept := ExcludeQuestions(pool, []string{"q2"})
	assert.Len(t, kept, 2)
	for _, q := range kept {
		assert.NotEqual(t, "q2", q.ID)
	}

	// No exclusions returns the pool untouched.
	assert.Len(t, ExcludeQuestions(pool, nil), 3)

	// Excluding everything leaves an empty pool; the caller falls back to
	// the full topic set because recency is a soft preference.
	assert.Empty(t, ExcludeQuestions(pool, []string{"q1", "q2", "q3"}))
}
