package events

import "time"

// EventType represents the type of event.
type EventType string

const (
	// EventTypeSchedule represents a schedule mutation event.
	EventTypeSchedule EventType = "schedule"
	// EventTypeInstance represents an instance lifecycle event.
	EventTypeInstance EventType = "instance"
)

// Event represents an event in the event bus queue.
type Event struct {
	ID          string        // Unique event ID
	Type        EventType     // Event type (schedule or instance)
	Source      string        // Event source (store, lifecycle, generator)
	Action      string        // Specific action (created, sent, dismissed, etc.)
	Payload     any           // Event payload (JSON-serializable)
	Metadata    EventMetadata // Additional metadata
	CreatedAt   time.Time     // When event was created
	ProcessAt   *time.Time    // When to process (nil = immediate)
	ProcessedAt *time.Time    // When event was processed
	Status      string        // Event status (pending, processing, completed, failed)
}

// EventMetadata contains additional context for an event.
type EventMetadata struct {
	RequestID string         // Request ID for tracing
	Actor     string         // Operator who triggered the event
	Extra     map[string]any // Additional metadata
}
