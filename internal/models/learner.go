package models

import "time"

// Learner represents the owner of all curriculum state. The server
// provisions a single default learner on first contact; identity
// providers are out of scope for the prototype.
type Learner struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"displayName"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// UpdateLearnerRequest represents a request to edit a learner's profile
type UpdateLearnerRequest struct {
	DisplayName *string        `json:"displayName,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// LearnerSnapshot is a cached read-model summarizing a learner's state
type LearnerSnapshot struct {
	LearnerID        string    `json:"learnerId"`
	ConceptsTracked  int       `json:"conceptsTracked"`
	AverageScore     float64   `json:"averageScore"`
	AverageStability float64   `json:"averageStability"`
	WeakPointCount   int       `json:"weakPointCount"`
	OpenPinCount     int       `json:"openPinCount"`
	ActiveCourseRuns int       `json:"activeCourseRuns"`
	GeneratedAt      time.Time `json:"generatedAt"`
}
