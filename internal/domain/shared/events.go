package shared

import "time"

// EventType represents the type of domain event.
type EventType string

// Domain event types. Events are the fire-and-forget seam between the atomic
// attempt-recording transaction and the asynchronous mastery/league workers.
const (
	// Practice events
	EventAttemptRecorded EventType = "practice.attempt_recorded"
	EventMasteryChanged  EventType = "practice.mastery_changed"

	// League events
	EventWeekRolledOver EventType = "league.week_rolled_over"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// EventHandler processes a single event. A non-nil error is logged by the
// bus, never propagated to the publisher.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus routes events to subscribed handlers.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// Close shuts the bus down and waits for in-flight handlers.
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// AttemptRecordedEvent is emitted after the attempt transaction commits.
// XPAwarded carries the already-capped award; downstream workers credit it
// as-is and never re-derive it.
type AttemptRecordedEvent struct {
	BaseEvent
	AttemptID string `json:"attempt_id"`
	StudentID string `json:"student_id"`
	TopicID   string `json:"topic_id"`
	IsCorrect bool   `json:"is_correct"`
	XPAwarded int    `json:"xp_awarded"`
}

// NewAttemptRecordedEvent creates an AttemptRecordedEvent.
func NewAttemptRecordedEvent(attemptID, studentID, topicID string, isCorrect bool, xpAwarded int) *AttemptRecordedEvent {
	return &AttemptRecordedEvent{
		BaseEvent: NewBaseEvent(EventAttemptRecorded, studentID),
		AttemptID: attemptID,
		StudentID: studentID,
		TopicID:   topicID,
		IsCorrect: isCorrect,
		XPAwarded: xpAwarded,
	}
}

// MasteryChangedEvent is emitted when a recompute moves a topic's mastery label.
type MasteryChangedEvent struct {
	BaseEvent
	StudentID  string `json:"student_id"`
	TopicID    string `json:"topic_id"`
	OldMastery string `json:"old_mastery"`
	NewMastery string `json:"new_mastery"`
}

// NewMasteryChangedEvent creates a MasteryChangedEvent.
func NewMasteryChangedEvent(studentID, topicID, oldMastery, newMastery string) *MasteryChangedEvent {
	return &MasteryChangedEvent{
		BaseEvent:  NewBaseEvent(EventMasteryChanged, studentID),
		StudentID:  studentID,
		TopicID:    topicID,
		OldMastery: oldMastery,
		NewMastery: newMastery,
	}
}

// WeekRolledOverEvent is emitted once per league processed by the rollover job.
type WeekRolledOverEvent struct {
	BaseEvent
	LeagueID string    `json:"league_id"`
	Tier     int       `json:"tier"`
	Week     time.Time `json:"week"`
	Promoted int       `json:"promoted"`
	Demoted  int       `json:"demoted"`
}

// NewWeekRolledOverEvent creates a WeekRolledOverEvent.
func NewWeekRolledOverEvent(leagueID string, tier int, week time.Time, promoted, demoted int) *WeekRolledOverEvent {
	return &WeekRolledOverEvent{
		BaseEvent: NewBaseEvent(EventWeekRolledOver, leagueID),
		LeagueID:  leagueID,
		Tier:      tier,
		Week:      week,
		Promoted:  promoted,
		Demoted:   demoted,
	}
}
