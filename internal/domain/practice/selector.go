package practice

// Difficulty bias by mastery: weaker mastery favors the easy end, stronger
// mastery the hard end. Streak signals then shift the target one step.
var masteryBaseDifficulty = map[Mastery]Difficulty{
	MasteryNotStarted: DifficultyEasy,
	MasteryPracticing: DifficultyMedium,
	MasteryMastered:   DifficultyHard,
}

// streakThreshold is how many consecutive wrong (or right) answers it takes
// to shift the target difficulty one step down (or up).
const streakThreshold = 2

// TargetDifficulty maps the student's mastery and streak signals onto the
// difficulty the selector should aim for.
func TargetDifficulty(mastery Mastery, consecutiveWrong, consecutiveRight int) Difficulty {
	base, ok := masteryBaseDifficulty[mastery]
	if !ok {
		base = DifficultyEasy
	}

	switch {
	case consecutiveWrong >= streakThreshold:
		return base.Step(-1)
	case consecutiveRight >= streakThreshold:
		return base.Step(+1)
	}
	return base
}

// PickQuestion chooses one question from the candidate pool, preferring the
// target difficulty and falling back to any difficulty when the target has
// none. The pick is the stable earliest-id candidate, so re-querying with the
// same pool is deterministic. Returns nil on an empty pool.
func PickQuestion(pool []Question, target Difficulty) *Question {
	if len(pool) == 0 {
		return nil
	}

	atTarget := make([]Question, 0, len(pool))
	for _, q := range pool {
		if q.Difficulty == target {
			atTarget = append(atTarget, q)
		}
	}

	candidates := atTarget
	if len(candidates) == 0 {
		candidates = pool
	}

	picked := candidates[0]
	for _, q := range candidates[1:] {
		if q.ID < picked.ID {
			picked = q
		}
	}
	return &picked
}

// ExcludeQuestions filters ids out of the pool. Used by the selector's final
// fallback ladder; exclusion is a soft preference, never a hard block.
func ExcludeQuestions(pool []Question, excludeIDs []string) []Question {
	if len(excludeIDs) == 0 {
		return pool
	}
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	kept := make([]Question, 0, len(pool))
	for _, q := range pool {
		if _, skip := excluded[q.ID]; !skip {
			kept = append(kept, q)
		}
	}
	return kept
}
