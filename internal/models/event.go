package models

import "time"

// EventLogEntry is an append-only audit record. Entries are never
// mutated or deleted.
type EventLogEntry struct {
	ID        string         `json:"id"`
	LearnerID string         `json:"learnerId,omitempty"`
	EventType string         `json:"eventType"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// SyncEventRequest represents an event replayed from a client-side
// offline queue
type SyncEventRequest struct {
	LearnerID         string         `json:"learnerId,omitempty"`
	EventType         string         `json:"eventType"`
	Payload           map[string]any `json:"payload,omitempty"`
	OriginalTimestamp string         `json:"originalTimestamp,omitempty"`
}

// SyncEventsRequest is a batch of queued events to replay
type SyncEventsRequest struct {
	Events []SyncEventRequest `json:"events"`
}
