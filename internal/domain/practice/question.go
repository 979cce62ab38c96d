// Package practice contains the practice domain: the question catalog types,
// the attempt log, the XP reward policy with its daily cap, per-topic mastery,
// the usage gate's day-boundary counters, and the adaptive question selection
// rules. Everything here is pure; persistence lives behind the interfaces in
// repository.go.
package practice

import "time"

// Difficulty is the coarse difficulty tag carried by every question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// difficultyOrder maps difficulties onto an ordered scale for stepping.
var difficultyOrder = map[Difficulty]int{
	DifficultyEasy:   0,
	DifficultyMedium: 1,
	DifficultyHard:   2,
}

var difficultyByOrder = [...]Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// IsValid reports whether d is a known difficulty.
func (d Difficulty) IsValid() bool {
	_, ok := difficultyOrder[d]
	return ok
}

// Step shifts the difficulty by delta levels, clamped to the valid range.
func (d Difficulty) Step(delta int) Difficulty {
	order, ok := difficultyOrder[d]
	if !ok {
		return DifficultyMedium
	}
	order += delta
	if order < 0 {
		order = 0
	}
	if order > len(difficultyByOrder)-1 {
		order = len(difficultyByOrder) - 1
	}
	return difficultyByOrder[order]
}

// Topic is a static catalog entry. Immutable at runtime; content is seeded.
type Topic struct {
	ID           string
	Title        string
	Chapter      string
	DisplayOrder int
}

// SolutionStep is one ordered hint/step record attached to a question.
type SolutionStep struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Hint  string `json:"hint,omitempty"`
}

// Question belongs to exactly one topic and sub-topic. Immutable at runtime.
type Question struct {
	ID         string
	TopicID    string
	SubTopic   string
	Difficulty Difficulty
	AnswerKey  string
	Steps      []SolutionStep
	CreatedAt  time.Time
}
