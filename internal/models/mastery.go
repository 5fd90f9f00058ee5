package models

import "time"

// MasteryState tracks a learner's estimated competence on one concept.
// Keyed uniquely by (learnerId, conceptId); score and stability are
// always clamped to [0,1]. Rows are created lazily on the first
// accepted delta and never deleted.
type MasteryState struct {
	ID                 string     `json:"id"`
	LearnerID          string     `json:"learnerId"`
	ConceptID          string     `json:"conceptId"`
	Score              float64    `json:"score"`
	Stability          float64    `json:"stability"`
	LastDemonstratedAt *time.Time `json:"lastDemonstratedAt,omitempty"`
}

// MasteryDelta is a single observation proposing a mastery change
type MasteryDelta struct {
	ConceptID  string  `json:"conceptId"`
	ScoreDelta float64 `json:"scoreDelta"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// AcceptanceResult reports whether a mastery delta was applied.
// A rejection is a normal outcome, not an error: callers branch on
// Accepted and surface Reason to the learner-facing layer.
type AcceptanceResult struct {
	Accepted       bool     `json:"accepted"`
	Reason         string   `json:"reason,omitempty"`
	FinalScore     *float64 `json:"finalScore,omitempty"`
	FinalStability *float64 `json:"finalStability,omitempty"`
}
