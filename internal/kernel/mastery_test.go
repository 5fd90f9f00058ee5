package kernel

import (
	"context"
	"strings"
	"sync"
	"testing"

	"muvserver/internal/models"
	"muvserver/internal/store"
)

func TestAcceptDelta_CapsAndAccepts(t *testing.T) {
	s := store.NewMemory()
	engine := NewMasteryEngine(s)
	ctx := context.Background()

	result, err := engine.AcceptDelta(ctx, "l1", models.MasteryDelta{
		ConceptID:  "c1",
		ScoreDelta: 0.5,
		Confidence: 0.8,
		Source:     "quiz:q1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected accepted, got rejection: %s", result.Reason)
	}
	if result.FinalScore == nil || *result.FinalScore != 0.25 {
		t.Errorf("expected final score 0.25 after capping, got %v", result.FinalScore)
	}
	if result.FinalStability == nil || *result.FinalStability != 0.05 {
		t.Errorf("expected final stability 0.05, got %v", result.FinalStability)
	}

	events, _ := s.ListEvents(ctx, "l1", 0)
	if len(events) != 1 || events[0].EventType != "mastery_delta_accepted" {
		t.Errorf("expected one mastery_delta_accepted event, got %+v", events)
	}
}

func TestAcceptDelta_ConfidenceGate(t *testing.T) {
	s := store.NewMemory()
	engine := NewMasteryEngine(s)
	ctx := context.Background()

	result, err := engine.AcceptDelta(ctx, "l1", models.MasteryDelta{
		ConceptID:  "c1",
		ScoreDelta: 0.5,
		Confidence: 0.2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection below confidence gate")
	}
	if !strings.Contains(result.Reason, "0.2") || !strings.Contains(result.Reason, "0.3") {
		t.Errorf("expected reason to name both values, got %q", result.Reason)
	}

	// Nothing persisted on rejection
	if _, err := s.GetMasteryState(ctx, "l1", "c1"); err == nil {
		t.Error("expected no mastery state after rejection")
	}
}

func TestAcceptDelta_InstabilityGuard(t *testing.T) {
	s := store.NewMemory()
	engine := NewMasteryEngine(s)
	ctx := context.Background()

	// Fresh concept: stability 0, negative delta must be refused.
	result, err := engine.AcceptDelta(ctx, "l1", models.MasteryDelta{
		ConceptID:  "c1",
		ScoreDelta: -0.2,
		Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection of negative delta on unstable concept")
	}

	// Build stability past the floor, then the same negative delta
	// goes through.
	// 12 accepted positive deltas push stability past 0.5 even with
	// floating point rounding on the 0.05 increments.
	for i := 0; i < 12; i++ {
		if _, err := engine.AcceptDelta(ctx, "l1", models.MasteryDelta{
			ConceptID:  "c1",
			ScoreDelta: 0.1,
			Confidence: 0.9,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	state, err := s.GetMasteryState(ctx, "l1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Stability < 0.5 {
		t.Fatalf("expected stability at least 0.5 after positive run, got %v", state.Stability)
	}

	result, err = engine.AcceptDelta(ctx, "l1", models.MasteryDelta{
		ConceptID:  "c1",
		ScoreDelta: -0.2,
		Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Accepted {
		t.Errorf("expected negative delta accepted on stable concept, got %s", result.Reason)
	}
}

func TestAcceptDelta_Accumulates(t *testing.T) {
	s := store.NewMemory()
	engine := NewMasteryEngine(s)
	ctx := context.Background()
	delta := models.MasteryDelta{ConceptID: "c1", ScoreDelta: 0.2, Confidence: 0.9}

	for i := 0; i < 3; i++ {
		if _, err := engine.AcceptDelta(ctx, "l1", delta); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	state, err := s.GetMasteryState(ctx, "l1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.6
	if diff := state.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected accumulated score %v, got %v", want, state.Score)
	}
}

func TestAcceptDelta_ScoreStaysClamped(t *testing.T) {
	s := store.NewMemory()
	engine := NewMasteryEngine(s)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		result, err := engine.AcceptDelta(ctx, "l1", models.MasteryDelta{
			ConceptID:  "c1",
			ScoreDelta: 0.9,
			Confidence: 0.9,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *result.FinalScore < 0 || *result.FinalScore > 1 {
			t.Fatalf("score out of range: %v", *result.FinalScore)
		}
		if *result.FinalStability < 0 || *result.FinalStability > 1 {
			t.Fatalf("stability out of range: %v", *result.FinalStability)
		}
	}

	state, _ := s.GetMasteryState(ctx, "l1", "c1")
	if state.Score != 1 {
		t.Errorf("expected score saturated at 1, got %v", state.Score)
	}
}

func TestAcceptDelta_ConcurrentSameConcept(t *testing.T) {
	s := store.NewMemory()
	engine := NewMasteryEngine(s)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = engine.AcceptDelta(ctx, "l1", models.MasteryDelta{
				ConceptID:  "c1",
				ScoreDelta: 0.1,
				Confidence: 0.9,
			})
		}()
	}
	wg.Wait()

	// Every delta must land; a lost update would leave the score short.
	state, err := s.GetMasteryState(ctx, "l1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.8
	if diff := state.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected score %v after %d concurrent deltas, got %v", want, workers, state.Score)
	}
}
