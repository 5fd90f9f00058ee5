package models

// SourceEntry is one resource inside an evidence pack
type SourceEntry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Snippet     string  `json:"snippet"`
	Reliability float64 `json:"reliability"`
}

// EvidencePack is a curated set of sources on a topic, recorded as an
// evidence artifact at creation
type EvidencePack struct {
	EvidencePackID string        `json:"evidencePackId"`
	Topic          string        `json:"topic"`
	AudienceLevel  string        `json:"audienceLevel"`
	Sources        []SourceEntry `json:"sources"`
	Version        int           `json:"version"`
	ArtifactID     string        `json:"artifactId"`
}
