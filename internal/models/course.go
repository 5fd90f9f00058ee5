package models

import "time"

// Course run statuses
const (
	CourseRunActive    = "active"
	CourseRunCompleted = "completed"
	CourseRunAbandoned = "abandoned"
)

// CourseBlueprint is an ordered set of concepts a learner works through
type CourseBlueprint struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ConceptIDs  []string  `json:"conceptIds"`
	LearnerID   string    `json:"learnerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CourseRun is one active execution of a blueprint
type CourseRun struct {
	ID          string     `json:"id"`
	BlueprintID string     `json:"blueprintId"`
	LearnerID   string     `json:"learnerId"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"` // [0,1]
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// UpdateCourseRunRequest represents a request to update a course run
type UpdateCourseRunRequest struct {
	Status      *string    `json:"status,omitempty"`
	Progress    *float64   `json:"progress,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
