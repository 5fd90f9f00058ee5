package models

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Payload is an opaque set of key/value pairs that preserves insertion
// order through JSON round trips. The evidence hash is computed over
// the serialized payload, so ordering must be stable.
type Payload = orderedmap.OrderedMap[string, any]

// NewPayload returns an empty ordered payload
func NewPayload() *Payload {
	return orderedmap.New[string, any]()
}

// EvidenceArtifact is an immutable, hashed record of a consequential
// learning action. Artifacts are never mutated after creation.
type EvidenceArtifact struct {
	ID           string    `json:"id"`
	LearnerID    string    `json:"learnerId"`
	SessionID    string    `json:"sessionId"`
	ArtifactType string    `json:"artifactType"`
	Hash         string    `json:"hash,omitempty"`
	Integrity    string    `json:"integrity"`
	Tags         []string  `json:"tags"`
	Metrics      *Payload  `json:"metrics"`
	Payload      *Payload  `json:"payload"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EvidenceInput describes an artifact to record. Tags and Metrics are
// optional and default to empty.
type EvidenceInput struct {
	LearnerID    string
	SessionID    string
	ArtifactType string
	Payload      *Payload
	Tags         []string
	Metrics      *Payload
}

// PortfolioItem groups evidence artifacts into a learner-facing showcase
type PortfolioItem struct {
	ID          string    `json:"id"`
	LearnerID   string    `json:"learnerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ArtifactIDs []string  `json:"artifactIds"`
	CreatedAt   time.Time `json:"createdAt"`
}
