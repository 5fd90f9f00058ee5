package plugins

import (
	"context"

	"github.com/google/uuid"

	"muvserver/internal/content"
	"muvserver/internal/kernel"
	"muvserver/internal/models"
)

// SearchIngestionPlugin synthesizes curated resource packs for a topic
// and records them as evidence.
type SearchIngestionPlugin struct {
	library  *content.Library
	recorder *kernel.EvidenceRecorder
}

// NewSearchIngestionPlugin creates a search ingestion plugin
func NewSearchIngestionPlugin(lib *content.Library, recorder *kernel.EvidenceRecorder) *SearchIngestionPlugin {
	return &SearchIngestionPlugin{library: lib, recorder: recorder}
}

// CreateEvidencePack expands every source template in the content bank
// for the topic and records an evidence_pack artifact.
func (p *SearchIngestionPlugin) CreateEvidencePack(ctx context.Context, learnerID, sessionID, topic, audienceLevel string) (*models.EvidencePack, error) {
	if audienceLevel == "" {
		audienceLevel = "beginner"
	}
	evidencePackID := uuid.NewString()

	templates := p.library.Bank().SearchSources
	sources := make([]models.SourceEntry, 0, len(templates))
	reliabilitySum := 0.0
	for _, tpl := range templates {
		title, url, snippet := tpl.Expand(topic, audienceLevel)
		sources = append(sources, models.SourceEntry{
			ID:          uuid.NewString(),
			Title:       title,
			URL:         url,
			Snippet:     snippet,
			Reliability: tpl.Reliability,
		})
		reliabilitySum += tpl.Reliability
	}
	avgReliability := 0.0
	if len(sources) > 0 {
		avgReliability = reliabilitySum / float64(len(sources))
	}

	payload := models.NewPayload()
	payload.Set("evidencePackId", evidencePackID)
	payload.Set("topic", topic)
	payload.Set("audienceLevel", audienceLevel)
	payload.Set("sources", sources)
	payload.Set("version", 1)

	metricsPayload := models.NewPayload()
	metricsPayload.Set("sourceCount", len(sources))
	metricsPayload.Set("avgReliability", avgReliability)

	artifact, err := p.recorder.Record(ctx, models.EvidenceInput{
		LearnerID:    learnerID,
		SessionID:    sessionID,
		ArtifactType: "evidence_pack",
		Payload:      payload,
		Tags:         []string{"search", "ingestion", "topic:" + topic},
		Metrics:      metricsPayload,
	})
	if err != nil {
		return nil, err
	}

	return &models.EvidencePack{
		EvidencePackID: evidencePackID,
		Topic:          topic,
		AudienceLevel:  audienceLevel,
		Sources:        sources,
		Version:        1,
		ArtifactID:     artifact.ID,
	}, nil
}

// UpdateEvidencePack appends one refreshed source to an existing pack
// and records an evidence_pack_update artifact. Pack contents are not
// read back; the update is evidence of the refresh, not a merge.
func (p *SearchIngestionPlugin) UpdateEvidencePack(ctx context.Context, learnerID, sessionID, evidencePackID string) (*models.EvidencePack, error) {
	newSource := models.SourceEntry{
		ID:          uuid.NewString(),
		Title:       "Updated resource",
		URL:         "https://learn.example.com/updated",
		Snippet:     "Newly discovered resource with updated information.",
		Reliability: 0.75,
	}

	payload := models.NewPayload()
	payload.Set("evidencePackId", evidencePackID)
	payload.Set("newSources", []models.SourceEntry{newSource})
	payload.Set("version", 2)

	metricsPayload := models.NewPayload()
	metricsPayload.Set("sourceCount", 1)

	artifact, err := p.recorder.Record(ctx, models.EvidenceInput{
		LearnerID:    learnerID,
		SessionID:    sessionID,
		ArtifactType: "evidence_pack_update",
		Payload:      payload,
		Tags:         []string{"search", "ingestion", "update"},
		Metrics:      metricsPayload,
	})
	if err != nil {
		return nil, err
	}

	return &models.EvidencePack{
		EvidencePackID: evidencePackID,
		Topic:          "Updated",
		AudienceLevel:  "intermediate",
		Sources:        []models.SourceEntry{newSource},
		Version:        2,
		ArtifactID:     artifact.ID,
	}, nil
}
