package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"muvserver/internal/metrics"
	"muvserver/internal/models"
	"muvserver/internal/store"
)

// Tuning constants for the mastery update gates
const (
	// ConfidenceGate is the minimum confidence an observation must
	// carry to influence mastery at all.
	ConfidenceGate = 0.3

	// DeltaCap bounds the influence of any single observation
	DeltaCap = 0.25

	// StabilityRequirementForMisconception blocks negative deltas on
	// concepts whose stability has not yet reached this floor. A
	// fragile concept cannot be pushed further down by one noisy
	// negative signal.
	StabilityRequirementForMisconception = 0.5

	stabilityGain = 0.05
	stabilityLoss = -0.1
)

// MasteryEngine applies gated, bounded deltas to per-(learner,concept)
// mastery state. Updates for the same pair are serialized with a keyed
// mutex held across the whole read-modify-write, so concurrent deltas
// cannot lose each other's writes.
type MasteryEngine struct {
	store store.Store
	locks *keyedMutex
}

// NewMasteryEngine creates a mastery engine backed by the given store
func NewMasteryEngine(s store.Store) *MasteryEngine {
	return &MasteryEngine{store: s, locks: newKeyedMutex()}
}

// LockConcepts acquires the update locks for every (learner, concept)
// pair and returns the combined unlock. Keys are deduplicated and
// locked in sorted order so concurrent batches cannot deadlock. The
// lock must be taken before opening a transaction, never inside one.
func (e *MasteryEngine) LockConcepts(learnerID string, conceptIDs []string) func() {
	keys := make([]string, 0, len(conceptIDs))
	seen := map[string]bool{}
	for _, id := range conceptIDs {
		key := learnerID + "|" + id
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	unlocks := make([]func(), 0, len(keys))
	for _, key := range keys {
		unlocks = append(unlocks, e.locks.Lock(key))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// AcceptDelta evaluates one mastery observation as its own unit of
// work. A gate rejection is a normal result, not an error: the
// returned AcceptanceResult carries Accepted=false and a
// human-readable reason. Errors are reserved for store failures.
func (e *MasteryEngine) AcceptDelta(ctx context.Context, learnerID string, delta models.MasteryDelta) (*models.AcceptanceResult, error) {
	unlock := e.LockConcepts(learnerID, []string{delta.ConceptID})
	defer unlock()

	var result *models.AcceptanceResult
	err := e.store.InTx(ctx, func(tx store.Store) error {
		var err error
		result, err = e.ApplyDelta(ctx, tx, learnerID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyDelta runs the gate-and-update algorithm against the given
// store, which may be transaction bound. The caller must already hold
// the concept lock via LockConcepts.
func (e *MasteryEngine) ApplyDelta(ctx context.Context, s store.Store, learnerID string, delta models.MasteryDelta) (*models.AcceptanceResult, error) {
	if delta.Confidence < ConfidenceGate {
		metrics.MasteryDeltasRejected.WithLabelValues("confidence").Inc()
		return &models.AcceptanceResult{
			Accepted: false,
			Reason:   fmt.Sprintf("Confidence %g below gate %g", delta.Confidence, ConfidenceGate),
		}, nil
	}

	cappedDelta := clamp(delta.ScoreDelta, -DeltaCap, DeltaCap)

	currentScore, currentStability := 0.0, 0.0
	current, err := s.GetMasteryStateForUpdate(ctx, learnerID, delta.ConceptID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if current != nil {
		currentScore = current.Score
		currentStability = current.Stability
	}

	newScore := clamp(currentScore+cappedDelta, 0, 1)
	stabilityChange := stabilityLoss
	if cappedDelta > 0 {
		stabilityChange = stabilityGain
	}
	newStability := clamp(currentStability+stabilityChange, 0, 1)

	if cappedDelta < 0 && currentStability < StabilityRequirementForMisconception {
		metrics.MasteryDeltasRejected.WithLabelValues("stability").Inc()
		return &models.AcceptanceResult{
			Accepted: false,
			Reason:   fmt.Sprintf("Stability %g too low for negative delta on misconception", currentStability),
		}, nil
	}

	if _, err := s.UpsertMasteryState(ctx, learnerID, delta.ConceptID, newScore, newStability); err != nil {
		return nil, err
	}
	if _, err := s.AppendEvent(ctx, learnerID, "mastery_delta_accepted", map[string]any{
		"conceptId":     delta.ConceptID,
		"previousScore": currentScore,
		"newScore":      newScore,
		"delta":         cappedDelta,
		"source":        delta.Source,
	}); err != nil {
		return nil, err
	}

	metrics.MasteryDeltasAccepted.Inc()
	return &models.AcceptanceResult{
		Accepted:       true,
		FinalScore:     &newScore,
		FinalStability: &newStability,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
