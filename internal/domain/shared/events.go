// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the reactivation machinery.
// Each event represents something significant that happened in the domain.
const (
	// Transfer request events
	EventTransferCreated         EventType = "transfer.created"
	EventTransferPromoted        EventType = "transfer.promoted"
	EventTransferTeacherApproved EventType = "transfer.teacher_approved"
	EventTransferTeacherRejected EventType = "transfer.teacher_rejected"
	EventTransferCompleted       EventType = "transfer.completed"
	EventTransferRejected        EventType = "transfer.rejected"
	EventTransferUndone          EventType = "transfer.undone"

	// Subject group events - anything that can change eligibility of
	// queued requests and therefore must trigger the reactivation sweep.
	EventGroupCapacityChanged   EventType = "group.capacity_changed"
	EventGroupDeadlineChanged   EventType = "group.deadline_changed"
	EventGroupMembershipChanged EventType = "group.membership_changed"
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
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// TransferStatusChangedEvent is emitted on every lifecycle transition of a
// transfer request. AggregateID is the request id.
type TransferStatusChangedEvent struct {
	BaseEvent
	Code      string `json:"code"`
	StudentID string `json:"student_id"`
	SubjectID string `json:"subject_id"`
	FromGroup string `json:"from_group,omitempty"`
	ToGroup   string `json:"to_group"`
	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status"`
}

// GroupChangedEvent is emitted when a subject group's capacity, deadline
// or membership changes. AggregateID is the group id. GroupIDs lists every
// group affected by the change (complete/undo touch two at once).
type GroupChangedEvent struct {
	BaseEvent
	GroupIDs []string `json:"group_ids"`
}

// NewGroupChangedEvent creates a GroupChangedEvent for the given groups.
func NewGroupChangedEvent(eventType EventType, groupIDs ...string) GroupChangedEvent {
	aggregate := ""
	if len(groupIDs) > 0 {
		aggregate = groupIDs[0]
	}
	return GroupChangedEvent{
		BaseEvent: NewBaseEvent(eventType, aggregate),
		GroupIDs:  groupIDs,
	}
}

// EventHandler processes a domain event.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, not retried.
	Handle(event Event) error

	// Name returns a human-readable handler name for logging.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error {
	return f.Fn(event)
}

// Name implements EventHandler.
func (f EventHandlerFunc) Name() string {
	return f.HandlerName
}

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// NoopPublisher discards all events. Useful in tests.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(Event) error { return nil }
