// Package store defines the repository surface the orchestration
// kernel depends on, with a SQL implementation for production and an
// in-memory implementation for tests.
package store

import (
	"context"
	"errors"

	"muvserver/internal/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Store is the persistence interface consumed by the kernel and
// plugins. Every operation is scoped to a single learner; nothing
// reads or writes across learners in one call.
type Store interface {
	// Learners
	GetOrCreateDefaultLearner(ctx context.Context) (*models.Learner, error)
	GetLearner(ctx context.Context, id string) (*models.Learner, error)
	UpdateLearner(ctx context.Context, id string, req models.UpdateLearnerRequest) (*models.Learner, error)

	// Concepts
	CreateConcept(ctx context.Context, label, domain, description string) (*models.Concept, error)
	ListConcepts(ctx context.Context, domain string) ([]models.Concept, error)

	// Courses
	CreateCourseBlueprint(ctx context.Context, title, description string, conceptIDs []string, learnerID string) (*models.CourseBlueprint, error)
	GetCourseBlueprint(ctx context.Context, id string) (*models.CourseBlueprint, error)
	ListCourseBlueprints(ctx context.Context, learnerID string) ([]models.CourseBlueprint, error)
	CreateCourseRun(ctx context.Context, blueprintID, learnerID string) (*models.CourseRun, error)
	ListCourseRuns(ctx context.Context, learnerID string) ([]models.CourseRun, error)
	ListActiveCourseRuns(ctx context.Context) ([]models.CourseRun, error)
	UpdateCourseRun(ctx context.Context, id string, req models.UpdateCourseRunRequest) (*models.CourseRun, error)

	// Mastery
	GetMasteryState(ctx context.Context, learnerID, conceptID string) (*models.MasteryState, error)
	// GetMasteryStateForUpdate locks the row for the remainder of the
	// enclosing transaction on backends that support row locks.
	GetMasteryStateForUpdate(ctx context.Context, learnerID, conceptID string) (*models.MasteryState, error)
	ListMasteryStates(ctx context.Context, learnerID string) ([]models.MasteryState, error)
	UpsertMasteryState(ctx context.Context, learnerID, conceptID string, score, stability float64) (*models.MasteryState, error)

	// Weak points
	CreateWeakPoint(ctx context.Context, learnerID, conceptID, wpType string, severity float64, signals []models.Signal, evidenceRefs []string) (*models.WeakPoint, error)
	ListWeakPoints(ctx context.Context, learnerID string) ([]models.WeakPoint, error)
	ResolveWeakPoint(ctx context.Context, id string) (*models.WeakPoint, error)

	// Evidence
	CreateEvidenceArtifact(ctx context.Context, artifact *models.EvidenceArtifact) (*models.EvidenceArtifact, error)
	ListEvidenceArtifacts(ctx context.Context, learnerID string) ([]models.EvidenceArtifact, error)

	// Portfolio
	CreatePortfolioItem(ctx context.Context, learnerID, title, description string, artifactIDs []string) (*models.PortfolioItem, error)
	ListPortfolioItems(ctx context.Context, learnerID string) ([]models.PortfolioItem, error)

	// Pins
	CreatePin(ctx context.Context, learnerID, content, source string) (*models.Pin, error)
	ListPins(ctx context.Context, learnerID string) ([]models.Pin, error)
	ResolvePin(ctx context.Context, id string) (*models.Pin, error)

	// Event log (append-only)
	AppendEvent(ctx context.Context, learnerID, eventType string, payload map[string]any) (*models.EventLogEntry, error)
	ListEvents(ctx context.Context, learnerID string, limit int) ([]models.EventLogEntry, error)

	// InTx runs fn against a store bound to a single transaction.
	// Calling InTx on an already transaction-bound store joins the
	// open transaction, so multi-write operations compose.
	InTx(ctx context.Context, fn func(Store) error) error
}
