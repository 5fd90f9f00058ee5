package plugins

import (
	"context"
	"strings"
	"testing"
)

func TestCreateEvidencePack(t *testing.T) {
	s, _, _, search := setupPlugins(t)
	ctx := context.Background()

	pack, err := search.CreateEvidencePack(ctx, "l1", "sess-1", "Machine Learning", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pack.AudienceLevel != "beginner" {
		t.Errorf("expected default audience beginner, got %q", pack.AudienceLevel)
	}
	if pack.Version != 1 {
		t.Errorf("expected version 1, got %d", pack.Version)
	}
	if len(pack.Sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(pack.Sources))
	}

	wantReliability := []float64{0.85, 0.9, 0.8}
	for i, src := range pack.Sources {
		if src.Reliability != wantReliability[i] {
			t.Errorf("source %d: expected reliability %v, got %v", i, wantReliability[i], src.Reliability)
		}
		if !strings.Contains(src.URL, "machine-learning") {
			t.Errorf("source %d: expected slugged topic in url, got %q", i, src.URL)
		}
		if !strings.Contains(src.Title, "Machine Learning") {
			t.Errorf("source %d: expected topic in title, got %q", i, src.Title)
		}
		if src.ID == "" {
			t.Errorf("source %d missing id", i)
		}
	}

	artifacts, _ := s.ListEvidenceArtifacts(ctx, "l1")
	if len(artifacts) != 1 || artifacts[0].ArtifactType != "evidence_pack" {
		t.Fatalf("expected one evidence_pack artifact, got %+v", artifacts)
	}
	if artifacts[0].ID != pack.ArtifactID {
		t.Error("expected pack to reference the stored artifact")
	}
	if count, ok := artifacts[0].Metrics.Get("sourceCount"); !ok || count != any(3) {
		t.Errorf("expected sourceCount metric 3, got %v", count)
	}
}

func TestUpdateEvidencePack(t *testing.T) {
	s, _, _, search := setupPlugins(t)
	ctx := context.Background()

	pack, err := search.UpdateEvidencePack(ctx, "l1", "sess-1", "pack-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pack.Version != 2 {
		t.Errorf("expected version 2, got %d", pack.Version)
	}
	if len(pack.Sources) != 1 || pack.Sources[0].Reliability != 0.75 {
		t.Errorf("expected single refreshed source, got %+v", pack.Sources)
	}

	artifacts, _ := s.ListEvidenceArtifacts(ctx, "l1")
	if len(artifacts) != 1 || artifacts[0].ArtifactType != "evidence_pack_update" {
		t.Errorf("expected evidence_pack_update artifact, got %+v", artifacts)
	}
}
