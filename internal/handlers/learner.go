package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"muvserver/internal/models"
	"muvserver/internal/services"
	"muvserver/internal/store"
)

// LearnerHandler handles learner profile and snapshot requests
type LearnerHandler struct {
	store     store.Store
	snapshots *services.SnapshotService
}

// NewLearnerHandler creates a new learner handler
func NewLearnerHandler(s store.Store, snapshots *services.SnapshotService) *LearnerHandler {
	return &LearnerHandler{store: s, snapshots: snapshots}
}

// Get returns the default learner, creating it on first contact
// GET /api/learner
func (h *LearnerHandler) Get(c *fiber.Ctx) error {
	learner, err := h.store.GetOrCreateDefaultLearner(c.Context())
	if err != nil {
		log.Printf("❌ Failed to get default learner: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get learner",
		})
	}

	return c.JSON(learner)
}

// Update edits a learner's profile
// PUT /api/learner/:id
func (h *LearnerHandler) Update(c *fiber.Ctx) error {
	learnerID := c.Params("id")

	var req models.UpdateLearnerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	learner, err := h.store.UpdateLearner(c.Context(), learnerID, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Learner not found",
			})
		}
		log.Printf("❌ Failed to update learner %s: %v", learnerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update learner",
		})
	}

	return c.JSON(learner)
}

// Snapshot returns the cached mastery summary for a learner
// GET /api/learner/:id/snapshot
func (h *LearnerHandler) Snapshot(c *fiber.Ctx) error {
	learnerID := c.Params("id")

	snapshot, err := h.snapshots.Snapshot(c.Context(), learnerID)
	if err != nil {
		log.Printf("❌ Failed to build snapshot for learner %s: %v", learnerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build snapshot",
		})
	}

	return c.JSON(snapshot)
}
