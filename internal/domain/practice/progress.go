package practice

import "time"

// Mastery is the per-topic proficiency label derived from attempt history.
type Mastery string

const (
	MasteryNotStarted Mastery = "not_started"
	MasteryPracticing Mastery = "practicing"
	MasteryMastered   Mastery = "mastered"
)

// IsValid reports whether m is a known mastery label.
func (m Mastery) IsValid() bool {
	switch m {
	case MasteryNotStarted, MasteryPracticing, MasteryMastered:
		return true
	}
	return false
}

// Progress is the per-(student, topic) proficiency row. Created lazily on
// first attempt in a topic, updated only by the mastery recompute, never
// deleted. Attempted and Correct only grow, so the state machine
//
//	NotStarted -> Practicing -> Mastered
//
// has a single backward edge, Mastered -> Practicing; Practicing can never
// return to NotStarted.
type Progress struct {
	StudentID string
	TopicID   string
	Attempted int
	Correct   int
	Mastery   Mastery
	UpdatedAt time.Time
}

// MasteryPolicy holds the thresholds for deriving a mastery label.
type MasteryPolicy struct {
	// MinSampleSize is the minimum number of recent attempts before a topic
	// can be promoted to Mastered.
	MinSampleSize int

	// PromoteAccuracy is the recent-window accuracy needed for Mastered.
	PromoteAccuracy float64

	// DemoteAccuracy is the recent-window accuracy below which a Mastered
	// topic regresses to Practicing.
	DemoteAccuracy float64

	// RecentWindow is how many of the newest attempts the accuracy is
	// computed over.
	RecentWindow int
}

// DefaultMasteryPolicy returns the production thresholds.
func DefaultMasteryPolicy() MasteryPolicy {
	return MasteryPolicy{
		MinSampleSize:   5,
		PromoteAccuracy: 0.85,
		DemoteAccuracy:  0.6,
		RecentWindow:    10,
	}
}

// Derive computes the mastery label from the aggregated stats and the label
// currently on record. The promote/demote thresholds form a hysteresis band:
// a Mastered topic survives a mild dip and only regresses below
// DemoteAccuracy. Deriving again with unchanged history is a fixed point, so
// the recompute stays idempotent.
func (p MasteryPolicy) Derive(current Mastery, stats TopicStats) Mastery {
	if stats.Attempted == 0 {
		return MasteryNotStarted
	}

	recent := stats.Recent
	if len(recent) > p.RecentWindow {
		recent = recent[:p.RecentWindow]
	}
	if len(recent) < p.MinSampleSize {
		if current == MasteryMastered {
			return MasteryMastered
		}
		return MasteryPracticing
	}

	correct := 0
	for _, ok := range recent {
		if ok {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(recent))

	if current == MasteryMastered {
		if accuracy < p.DemoteAccuracy {
			return MasteryPracticing
		}
		return MasteryMastered
	}

	if accuracy >= p.PromoteAccuracy {
		return MasteryMastered
	}
	return MasteryPracticing
}
