package kernel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"muvserver/internal/metrics"
	"muvserver/internal/models"
	"muvserver/internal/store"
)

// IntegrityPrototype marks artifacts as hashed but not yet signed
const IntegrityPrototype = "prototype"

// ComputeArtifactHash fingerprints a payload as the first 16 hex
// characters of the SHA-256 of its JSON serialization. Payloads
// preserve insertion order through serialization, so identical
// payloads always produce identical hashes.
func ComputeArtifactHash(payload *models.Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16], nil
}

// EvidenceRecorder hashes and persists artifacts documenting any
// learner-facing action. Artifacts are immutable once created.
type EvidenceRecorder struct {
	store store.Store
}

// NewEvidenceRecorder creates a recorder backed by the given store
func NewEvidenceRecorder(s store.Store) *EvidenceRecorder {
	return &EvidenceRecorder{store: s}
}

// Record computes the payload hash and persists a new artifact.
// Tags and metrics default to empty when omitted.
func (r *EvidenceRecorder) Record(ctx context.Context, input models.EvidenceInput) (*models.EvidenceArtifact, error) {
	return r.RecordIn(ctx, r.store, input)
}

// RecordIn is Record against an explicit store, letting callers fold
// the artifact write into an open transaction.
func (r *EvidenceRecorder) RecordIn(ctx context.Context, s store.Store, input models.EvidenceInput) (*models.EvidenceArtifact, error) {
	payload := input.Payload
	if payload == nil {
		payload = models.NewPayload()
	}
	hash, err := ComputeArtifactHash(payload)
	if err != nil {
		return nil, err
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	m := input.Metrics
	if m == nil {
		m = models.NewPayload()
	}

	artifact, err := s.CreateEvidenceArtifact(ctx, &models.EvidenceArtifact{
		LearnerID:    input.LearnerID,
		SessionID:    input.SessionID,
		ArtifactType: input.ArtifactType,
		Hash:         hash,
		Integrity:    IntegrityPrototype,
		Tags:         tags,
		Metrics:      m,
		Payload:      payload,
	})
	if err != nil {
		return nil, err
	}
	metrics.EvidenceRecorded.WithLabelValues(input.ArtifactType).Inc()
	return artifact, nil
}
