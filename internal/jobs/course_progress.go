package jobs

import (
	"context"
	"log"
	"time"

	"muvserver/internal/models"
	"muvserver/internal/store"
)

// CourseRunProgressJob recomputes the progress of every active course
// run from the learner's current mastery over the blueprint's concepts.
// It never changes a run's status; completing or abandoning a run is an
// explicit API action.
type CourseRunProgressJob struct {
	store store.Store
}

// NewCourseRunProgressJob creates the progress recompute job
func NewCourseRunProgressJob(s store.Store) *CourseRunProgressJob {
	return &CourseRunProgressJob{store: s}
}

// Run recomputes progress for all active course runs
func (j *CourseRunProgressJob) Run(ctx context.Context) error {
	log.Println("[PROGRESS] Recomputing course run progress...")
	startTime := time.Now()

	runs, err := j.store.ListActiveCourseRuns(ctx)
	if err != nil {
		log.Printf("[PROGRESS] Failed to list active runs: %v", err)
		return err
	}

	updated := 0
	for _, run := range runs {
		progress, err := j.computeProgress(ctx, run.BlueprintID, run.LearnerID)
		if err != nil {
			log.Printf("[PROGRESS] Failed to compute progress for run %s: %v", run.ID, err)
			continue
		}

		if progress == run.Progress {
			continue
		}

		p := progress
		if _, err := j.store.UpdateCourseRun(ctx, run.ID, models.UpdateCourseRunRequest{Progress: &p}); err != nil {
			log.Printf("[PROGRESS] Failed to update run %s: %v", run.ID, err)
			continue
		}
		updated++
	}

	log.Printf("[PROGRESS] Updated %d of %d active runs in %v", updated, len(runs), time.Since(startTime))
	return nil
}

// computeProgress is the mean mastery score across the blueprint's
// concepts, with untracked concepts counting as zero.
func (j *CourseRunProgressJob) computeProgress(ctx context.Context, blueprintID, learnerID string) (float64, error) {
	blueprint, err := j.store.GetCourseBlueprint(ctx, blueprintID)
	if err != nil {
		return 0, err
	}
	if len(blueprint.ConceptIDs) == 0 {
		return 0, nil
	}

	states, err := j.store.ListMasteryStates(ctx, learnerID)
	if err != nil {
		return 0, err
	}

	scores := make(map[string]float64, len(states))
	for _, st := range states {
		scores[st.ConceptID] = st.Score
	}

	var total float64
	for _, conceptID := range blueprint.ConceptIDs {
		total += scores[conceptID]
	}
	return total / float64(len(blueprint.ConceptIDs)), nil
}
