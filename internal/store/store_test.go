package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"muvserver/internal/database"
	"muvserver/internal/models"
)

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// eachStore runs fn against both store implementations
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("sql", func(t *testing.T) {
		db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if err := db.Initialize(); err != nil {
			t.Fatalf("failed to initialize schema: %v", err)
		}
		fn(t, NewSQL(db))
	})

	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
}

func TestGetOrCreateDefaultLearner(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		first, err := s.GetOrCreateDefaultLearner(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.DisplayName != "Learner" {
			t.Errorf("expected default display name 'Learner', got %q", first.DisplayName)
		}

		second, err := s.GetOrCreateDefaultLearner(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("expected same learner on second call, got %s and %s", first.ID, second.ID)
		}
	})
}

func TestUpdateLearner(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		learner, err := s.GetOrCreateDefaultLearner(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		name := "Ada"
		updated, err := s.UpdateLearner(ctx, learner.ID, models.UpdateLearnerRequest{
			DisplayName: &name,
			Preferences: map[string]any{"pace": "fast"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.DisplayName != "Ada" {
			t.Errorf("expected display name Ada, got %q", updated.DisplayName)
		}

		got, err := s.GetLearner(ctx, learner.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Preferences["pace"] != "fast" {
			t.Errorf("expected preference to persist, got %v", got.Preferences)
		}

		if _, err := s.UpdateLearner(ctx, "missing", models.UpdateLearnerRequest{}); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing learner, got %v", err)
		}
	})
}

func TestConcepts(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.CreateConcept(ctx, "Recursion", "cs", "self reference"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := s.CreateConcept(ctx, "Derivatives", "math", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		all, err := s.ListConcepts(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 concepts, got %d", len(all))
		}

		math, err := s.ListConcepts(ctx, "math")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(math) != 1 || math[0].Label != "Derivatives" {
			t.Errorf("expected single math concept Derivatives, got %+v", math)
		}
	})
}

func TestCourseRunLifecycle(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		learner, _ := s.GetOrCreateDefaultLearner(ctx)

		bp, err := s.CreateCourseBlueprint(ctx, "Intro", "", []string{"c1", "c2"}, learner.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		run, err := s.CreateCourseRun(ctx, bp.ID, learner.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Status != models.CourseRunActive {
			t.Errorf("expected active status, got %q", run.Status)
		}
		if run.Progress != 0 {
			t.Errorf("expected zero progress, got %v", run.Progress)
		}

		active, err := s.ListActiveCourseRuns(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(active) != 1 {
			t.Fatalf("expected 1 active run, got %d", len(active))
		}

		progress := 1.5
		updated, err := s.UpdateCourseRun(ctx, run.ID, models.UpdateCourseRunRequest{Progress: &progress})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Progress != 1 {
			t.Errorf("expected progress clamped to 1, got %v", updated.Progress)
		}

		status := models.CourseRunCompleted
		updated, err = s.UpdateCourseRun(ctx, run.ID, models.UpdateCourseRunRequest{Status: &status})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Status != models.CourseRunCompleted {
			t.Errorf("expected completed status, got %q", updated.Status)
		}

		active, _ = s.ListActiveCourseRuns(ctx)
		if len(active) != 0 {
			t.Errorf("expected no active runs after completion, got %d", len(active))
		}
	})
}

func TestMasteryUpsert(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.GetMasteryState(ctx, "l1", "c1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound before upsert, got %v", err)
		}

		ms, err := s.UpsertMasteryState(ctx, "l1", "c1", 0.4, 0.55)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ms.Score != 0.4 || ms.Stability != 0.55 {
			t.Errorf("unexpected mastery state: %+v", ms)
		}
		if ms.LastDemonstratedAt == nil {
			t.Error("expected last demonstrated timestamp to be set")
		}

		again, err := s.UpsertMasteryState(ctx, "l1", "c1", 0.6, 0.6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.ID != ms.ID {
			t.Errorf("expected upsert to reuse row, got ids %s and %s", ms.ID, again.ID)
		}
		if again.Score != 0.6 {
			t.Errorf("expected score 0.6 after second upsert, got %v", again.Score)
		}

		states, err := s.ListMasteryStates(ctx, "l1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(states) != 1 {
			t.Errorf("expected 1 mastery state, got %d", len(states))
		}
	})
}

func TestWeakPoints(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		signals := []models.Signal{{Type: "error", Value: 0.8}}

		low, err := s.CreateWeakPoint(ctx, "l1", "c1", models.WeakPointAttentionDrift, 0.15, signals, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		high, err := s.CreateWeakPoint(ctx, "l1", "c2", models.WeakPointMisconception, 0.6, signals, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wps, err := s.ListWeakPoints(ctx, "l1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(wps) != 2 {
			t.Fatalf("expected 2 weak points, got %d", len(wps))
		}
		if wps[0].ID != high.ID {
			t.Errorf("expected highest severity first, got %+v", wps[0])
		}
		if len(wps[0].Signals) != 1 || wps[0].Signals[0].Type != "error" {
			t.Errorf("expected signals to round trip, got %+v", wps[0].Signals)
		}

		resolved, err := s.ResolveWeakPoint(ctx, low.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolved.ResolvedAt == nil {
			t.Error("expected resolved timestamp")
		}

		wps, _ = s.ListWeakPoints(ctx, "l1")
		if len(wps) != 1 {
			t.Errorf("expected resolved weak point to be filtered out, got %d", len(wps))
		}

		if _, err := s.ResolveWeakPoint(ctx, low.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound resolving twice, got %v", err)
		}
	})
}

func TestEvidenceArtifacts(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		payload := models.NewPayload()
		payload.Set("answer", "42")
		metrics := models.NewPayload()
		metrics.Set("score", 0.9)

		created, err := s.CreateEvidenceArtifact(ctx, &models.EvidenceArtifact{
			LearnerID:    "l1",
			SessionID:    "sess-1",
			ArtifactType: "quiz_grade",
			Hash:         "abcd1234abcd1234",
			Integrity:    "prototype",
			Tags:         []string{"quiz"},
			Metrics:      metrics,
			Payload:      payload,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created.ID == "" {
			t.Error("expected generated id")
		}

		artifacts, err := s.ListEvidenceArtifacts(ctx, "l1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(artifacts) != 1 {
			t.Fatalf("expected 1 artifact, got %d", len(artifacts))
		}
		got := artifacts[0]
		if got.Hash != "abcd1234abcd1234" || got.ArtifactType != "quiz_grade" {
			t.Errorf("unexpected artifact: %+v", got)
		}
		if v, ok := got.Payload.Get("answer"); !ok || v != "42" {
			t.Errorf("expected payload to round trip, got %v", v)
		}
	})
}

func TestPins(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		pin, err := s.CreatePin(ctx, "l1", "review recursion later", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pin.Source != "voice" {
			t.Errorf("expected default source voice, got %q", pin.Source)
		}

		pins, _ := s.ListPins(ctx, "l1")
		if len(pins) != 1 {
			t.Fatalf("expected 1 pin, got %d", len(pins))
		}

		resolved, err := s.ResolvePin(ctx, pin.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resolved.Resolved {
			t.Error("expected pin to be resolved")
		}

		pins, _ = s.ListPins(ctx, "l1")
		if len(pins) != 0 {
			t.Errorf("expected resolved pin to be filtered out, got %d", len(pins))
		}
	})
}

func TestEventLog(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			if _, err := s.AppendEvent(ctx, "l1", "orchestrate_request", map[string]any{"n": i}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if _, err := s.AppendEvent(ctx, "l2", "pin_created", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		events, err := s.ListEvents(ctx, "l1", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected limit of 2 events, got %d", len(events))
		}
		for _, e := range events {
			if e.LearnerID != "l1" {
				t.Errorf("expected only l1 events, got %+v", e)
			}
		}
	})
}

func TestInTxComposesWrites(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		err := s.InTx(ctx, func(tx Store) error {
			if _, err := tx.UpsertMasteryState(ctx, "l1", "c1", 0.5, 0.55); err != nil {
				return err
			}
			// A nested call must join the open transaction, not deadlock
			// or open a second one.
			return tx.InTx(ctx, func(inner Store) error {
				_, err := inner.AppendEvent(ctx, "l1", "mastery_delta_accepted", nil)
				return err
			})
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := s.GetMasteryState(ctx, "l1", "c1"); err != nil {
			t.Errorf("expected committed mastery state, got %v", err)
		}
		events, _ := s.ListEvents(ctx, "l1", 0)
		if len(events) != 1 {
			t.Errorf("expected committed event, got %d", len(events))
		}
	})
}

func TestInTxRollback(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	s := NewSQL(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err = s.InTx(ctx, func(tx Store) error {
		if _, err := tx.UpsertMasteryState(ctx, "l1", "c1", 0.5, 0.55); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}

	if _, err := s.GetMasteryState(ctx, "l1", "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected rollback to discard mastery state, got %v", err)
	}
}
