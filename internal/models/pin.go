package models

import "time"

// Pin is a learner-authored reminder captured from a voice command
type Pin struct {
	ID        string    `json:"id"`
	LearnerID string    `json:"learnerId"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatePinRequest represents a request to create a pin
type CreatePinRequest struct {
	LearnerID string `json:"learnerId"`
	Content   string `json:"content"`
	Source    string `json:"source,omitempty"`
}
