package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"muvserver/internal/kernel"
	"muvserver/internal/models"
	"muvserver/internal/services"
)

// SignalsHandler handles behavioral signal batches
type SignalsHandler struct {
	detector  *kernel.WeakPointDetector
	snapshots *services.SnapshotService
}

// NewSignalsHandler creates a new signals handler
func NewSignalsHandler(detector *kernel.WeakPointDetector, snapshots *services.SnapshotService) *SignalsHandler {
	return &SignalsHandler{detector: detector, snapshots: snapshots}
}

// Detect analyzes a batch of signals and records any weak points found
// POST /api/signals
func (h *SignalsHandler) Detect(c *fiber.Ctx) error {
	var req models.DetectSignalsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.LearnerID == "" || req.ConceptID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "learnerId and conceptId are required",
		})
	}
	if len(req.Signals) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "signals are required",
		})
	}

	weakPoints, err := h.detector.Detect(c.Context(), req.LearnerID, req.Signals, req.ConceptID)
	if err != nil {
		log.Printf("❌ Signal analysis failed for learner %s: %v", req.LearnerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to analyze signals",
		})
	}

	if len(weakPoints) > 0 && h.snapshots != nil {
		h.snapshots.Invalidate(req.LearnerID)
	}

	return c.JSON(fiber.Map{
		"weakPoints": weakPoints,
		"count":      len(weakPoints),
	})
}
