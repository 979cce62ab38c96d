package practice

import (
	"context"
	"time"
)

// QuestionBank is the read-only catalog collaborator consumed by the
// adaptive selector. Content is seeded externally and immutable at runtime.
type QuestionBank interface {
	// GetTopic returns a topic by ID.
	// Returns shared.ErrTopicNotFound when missing.
	GetTopic(ctx context.Context, topicID string) (*Topic, error)

	// ListByTopic returns every question in a topic.
	ListByTopic(ctx context.Context, topicID string) ([]Question, error)

	// ListByTopicExcluding returns the topic's questions minus the given IDs.
	ListByTopicExcluding(ctx context.Context, topicID string, excludeIDs []string) ([]Question, error)
}

// AttemptLedger owns the attempt and usage-log write path.
type AttemptLedger interface {
	// Record atomically persists an attempt and settles its XP:
	//   1. verify the student exists (shared.ErrStudentNotFound, no partial writes)
	//   2. insert the attempt row
	//   3. upsert today's usage log, attempted count +1
	//   4. read today's XP inside the same transaction and award
	//      ClampToDailyCap(rawXP, xpSoFar), incrementing the usage log
	//
	// Implementations must serialize concurrent calls per (student, day) so
	// two submissions can never both observe the same pre-increment XP.
	Record(ctx context.Context, attempt *Attempt, rawXP int) (awardedXP int, err error)

	// StatsByTopic aggregates the full attempt history for one
	// (student, topic) key, including the recent-window correctness slice
	// (newest first, at most recentLimit entries).
	StatsByTopic(ctx context.Context, studentID, topicID string, recentLimit int) (TopicStats, error)
}

// UsageStore owns the usage gate's transactional heartbeat path.
type UsageStore interface {
	// Heartbeat atomically adds one minute to today's usage log and applies
	// Tick to the student's daily counters under a per-student lock,
	// then evaluates the plan limit. Returns shared.ErrStudentNotFound for
	// unknown students.
	Heartbeat(ctx context.Context, studentID string, now time.Time) (GateStatus, error)

	// Check evaluates the gate without mutating anything, for pre-session
	// checks.
	Check(ctx context.Context, studentID string, now time.Time) (GateStatus, error)
}

// ProgressRepository owns the per-(student, topic) mastery rows. Only the
// mastery recompute writes here.
type ProgressRepository interface {
	// Get returns the progress row for a key.
	// Returns shared.ErrProgressNotFound when the topic was never attempted.
	Get(ctx context.Context, studentID, topicID string) (*Progress, error)

	// Upsert creates or replaces the progress row for its key.
	Upsert(ctx context.Context, p *Progress) error
}
