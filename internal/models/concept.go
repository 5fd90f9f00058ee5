package models

import "time"

// Concept is a labeled unit of knowledge with a domain tag.
// Concepts are created implicitly whenever orchestration needs a topic
// and none exists yet; there is intentionally no dedup by label.
type Concept struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Domain      string    `json:"domain"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
