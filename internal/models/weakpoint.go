package models

import "time"

// Weak point categories produced by the detector
const (
	WeakPointMisconception        = "misconception"
	WeakPointFragileUnderstanding = "fragile_understanding"
	WeakPointTransferFailure      = "transfer_failure"
	WeakPointSignalPrioritization = "signal_prioritization"
	WeakPointAttentionDrift       = "attention_drift"
)

// Signal is a single behavioral observation fed to the detector
type Signal struct {
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// WeakPoint is a detected recurring difficulty pattern tied to a
// learner and concept. Resolution is a manual act; multiple unresolved
// weak points of different types may coexist for the same concept.
type WeakPoint struct {
	ID           string     `json:"id"`
	LearnerID    string     `json:"learnerId"`
	ConceptID    string     `json:"conceptId"`
	WPType       string     `json:"wpType"`
	Severity     float64    `json:"severity"` // [0,1]
	Signals      []Signal   `json:"signals"`
	EvidenceRefs []string   `json:"evidenceRefs"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// DetectSignalsRequest represents a batch of signals to analyze
type DetectSignalsRequest struct {
	LearnerID string   `json:"learnerId"`
	ConceptID string   `json:"conceptId"`
	Signals   []Signal `json:"signals"`
}
