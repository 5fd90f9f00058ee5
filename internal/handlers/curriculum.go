package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"muvserver/internal/models"
	"muvserver/internal/services"
	"muvserver/internal/store"
)

// CurriculumHandler handles concept, course, mastery, weak point,
// evidence and portfolio reads plus course run updates
type CurriculumHandler struct {
	store     store.Store
	snapshots *services.SnapshotService
}

// NewCurriculumHandler creates a new curriculum handler
func NewCurriculumHandler(s store.Store, snapshots *services.SnapshotService) *CurriculumHandler {
	return &CurriculumHandler{store: s, snapshots: snapshots}
}

// requireLearnerQuery reads the learner_id query parameter shared by
// the list endpoints
func requireLearnerQuery(c *fiber.Ctx) (string, error) {
	learnerID := c.Query("learner_id")
	if learnerID == "" {
		return "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "learner_id query parameter is required",
		})
	}
	return learnerID, nil
}

// ListConcepts returns tracked concepts, optionally filtered by domain
// GET /api/concepts?domain=
func (h *CurriculumHandler) ListConcepts(c *fiber.Ctx) error {
	concepts, err := h.store.ListConcepts(c.Context(), c.Query("domain"))
	if err != nil {
		log.Printf("❌ Failed to list concepts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list concepts",
		})
	}

	return c.JSON(fiber.Map{
		"concepts": concepts,
		"count":    len(concepts),
	})
}

// ListCourses returns a learner's course blueprints
// GET /api/courses?learner_id
func (h *CurriculumHandler) ListCourses(c *fiber.Ctx) error {
	learnerID, err := requireLearnerQuery(c)
	if err != nil || learnerID == "" {
		return err
	}

	blueprints, err := h.store.ListCourseBlueprints(c.Context(), learnerID)
	if err != nil {
		log.Printf("❌ Failed to list courses: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list courses",
		})
	}

	return c.JSON(fiber.Map{
		"courses": blueprints,
		"count":   len(blueprints),
	})
}

// ListCourseRuns returns a learner's course runs
// GET /api/course-runs?learner_id
func (h *CurriculumHandler) ListCourseRuns(c *fiber.Ctx) error {
	learnerID, err := requireLearnerQuery(c)
	if err != nil || learnerID == "" {
		return err
	}

	runs, err := h.store.ListCourseRuns(c.Context(), learnerID)
	if err != nil {
		log.Printf("❌ Failed to list course runs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list course runs",
		})
	}

	return c.JSON(fiber.Map{
		"courseRuns": runs,
		"count":      len(runs),
	})
}

// UpdateCourseRun edits a course run's status or progress
// PUT /api/course-runs/:id
func (h *CurriculumHandler) UpdateCourseRun(c *fiber.Ctx) error {
	runID := c.Params("id")

	var req models.UpdateCourseRunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Status != nil {
		switch *req.Status {
		case models.CourseRunActive, models.CourseRunCompleted, models.CourseRunAbandoned:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid course run status",
			})
		}
	}

	run, err := h.store.UpdateCourseRun(c.Context(), runID, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course run not found",
			})
		}
		log.Printf("❌ Failed to update course run %s: %v", runID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update course run",
		})
	}

	if h.snapshots != nil {
		h.snapshots.Invalidate(run.LearnerID)
	}

	return c.JSON(run)
}

// ListMastery returns a learner's mastery states
// GET /api/mastery?learner_id
func (h *CurriculumHandler) ListMastery(c *fiber.Ctx) error {
	learnerID, err := requireLearnerQuery(c)
	if err != nil || learnerID == "" {
		return err
	}

	states, err := h.store.ListMasteryStates(c.Context(), learnerID)
	if err != nil {
		log.Printf("❌ Failed to list mastery states: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list mastery states",
		})
	}

	return c.JSON(fiber.Map{
		"mastery": states,
		"count":   len(states),
	})
}

// ListWeakPoints returns a learner's unresolved weak points
// GET /api/weak-points?learner_id
func (h *CurriculumHandler) ListWeakPoints(c *fiber.Ctx) error {
	learnerID, err := requireLearnerQuery(c)
	if err != nil || learnerID == "" {
		return err
	}

	weakPoints, err := h.store.ListWeakPoints(c.Context(), learnerID)
	if err != nil {
		log.Printf("❌ Failed to list weak points: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list weak points",
		})
	}

	return c.JSON(fiber.Map{
		"weakPoints": weakPoints,
		"count":      len(weakPoints),
	})
}

// ResolveWeakPoint marks a weak point as addressed
// PUT /api/weak-points/:id/resolve
func (h *CurriculumHandler) ResolveWeakPoint(c *fiber.Ctx) error {
	weakPointID := c.Params("id")

	weakPoint, err := h.store.ResolveWeakPoint(c.Context(), weakPointID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Weak point not found",
			})
		}
		log.Printf("❌ Failed to resolve weak point %s: %v", weakPointID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve weak point",
		})
	}

	if h.snapshots != nil {
		h.snapshots.Invalidate(weakPoint.LearnerID)
	}

	log.Printf("✅ Weak point %s resolved", weakPointID)
	return c.JSON(weakPoint)
}

// ListEvidence returns a learner's evidence artifacts
// GET /api/evidence?learner_id
func (h *CurriculumHandler) ListEvidence(c *fiber.Ctx) error {
	learnerID, err := requireLearnerQuery(c)
	if err != nil || learnerID == "" {
		return err
	}

	artifacts, err := h.store.ListEvidenceArtifacts(c.Context(), learnerID)
	if err != nil {
		log.Printf("❌ Failed to list evidence artifacts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list evidence artifacts",
		})
	}

	return c.JSON(fiber.Map{
		"artifacts": artifacts,
		"count":     len(artifacts),
	})
}

// ListPortfolio returns a learner's portfolio items
// GET /api/portfolio?learner_id
func (h *CurriculumHandler) ListPortfolio(c *fiber.Ctx) error {
	learnerID, err := requireLearnerQuery(c)
	if err != nil || learnerID == "" {
		return err
	}

	items, err := h.store.ListPortfolioItems(c.Context(), learnerID)
	if err != nil {
		log.Printf("❌ Failed to list portfolio items: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list portfolio items",
		})
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}
