package services

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"muvserver/internal/models"
	"muvserver/internal/store"
)

const snapshotTTL = 30 * time.Second

// SnapshotService builds cached read-model summaries of a learner's
// state. Snapshots are served from cache for up to 30 seconds; the
// dashboard polls this endpoint, so staleness is acceptable.
type SnapshotService struct {
	store store.Store
	cache *gocache.Cache
}

// NewSnapshotService creates a snapshot service
func NewSnapshotService(s store.Store) *SnapshotService {
	return &SnapshotService{
		store: s,
		cache: gocache.New(snapshotTTL, 2*snapshotTTL),
	}
}

// Snapshot returns the learner's summary, computing it on cache miss
func (s *SnapshotService) Snapshot(ctx context.Context, learnerID string) (*models.LearnerSnapshot, error) {
	if cached, ok := s.cache.Get(learnerID); ok {
		return cached.(*models.LearnerSnapshot), nil
	}

	states, err := s.store.ListMasteryStates(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	weakPoints, err := s.store.ListWeakPoints(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	pins, err := s.store.ListPins(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	runs, err := s.store.ListCourseRuns(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	var scoreSum, stabilitySum float64
	for _, ms := range states {
		scoreSum += ms.Score
		stabilitySum += ms.Stability
	}
	avgScore, avgStability := 0.0, 0.0
	if len(states) > 0 {
		avgScore = scoreSum / float64(len(states))
		avgStability = stabilitySum / float64(len(states))
	}

	activeRuns := 0
	for _, run := range runs {
		if run.Status == models.CourseRunActive {
			activeRuns++
		}
	}

	snapshot := &models.LearnerSnapshot{
		LearnerID:        learnerID,
		ConceptsTracked:  len(states),
		AverageScore:     avgScore,
		AverageStability: avgStability,
		WeakPointCount:   len(weakPoints),
		OpenPinCount:     len(pins),
		ActiveCourseRuns: activeRuns,
		GeneratedAt:      time.Now().UTC(),
	}
	s.cache.Set(learnerID, snapshot, snapshotTTL)
	return snapshot, nil
}

// Invalidate drops the cached snapshot for a learner
func (s *SnapshotService) Invalidate(learnerID string) {
	s.cache.Delete(learnerID)
}
