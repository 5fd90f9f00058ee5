package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"muvserver/internal/models"
	"muvserver/internal/services"
)

// OrchestrateHandler handles voice transcript orchestration requests
type OrchestrateHandler struct {
	orchestrator *services.Orchestrator
	limiter      *services.UsageLimiterService
	snapshots    *services.SnapshotService
}

// NewOrchestrateHandler creates a new orchestrate handler
func NewOrchestrateHandler(orchestrator *services.Orchestrator, limiter *services.UsageLimiterService, snapshots *services.SnapshotService) *OrchestrateHandler {
	return &OrchestrateHandler{
		orchestrator: orchestrator,
		limiter:      limiter,
		snapshots:    snapshots,
	}
}

// Handle classifies a transcript and dispatches it to the kernel
// POST /api/orchestrate
func (h *OrchestrateHandler) Handle(c *fiber.Ctx) error {
	var req models.OrchestrateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.LearnerID == "" || req.Transcript == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "learner_id and transcript are required",
		})
	}

	if h.limiter != nil {
		if err := h.limiter.CheckOrchestrateLimit(c.Context(), req.LearnerID); err != nil {
			var limitErr *services.LimitExceededError
			if errors.As(err, &limitErr) {
				return c.Status(fiber.StatusTooManyRequests).JSON(limitErr)
			}
			log.Printf("⚠️  Usage limit check failed: %v", err)
		}
	}

	resp, err := h.orchestrator.Orchestrate(c.Context(), req)
	if err != nil {
		log.Printf("❌ Orchestration failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process transcript",
		})
	}

	if h.limiter != nil {
		if err := h.limiter.IncrementOrchestrateCount(c.Context(), req.LearnerID); err != nil {
			log.Printf("⚠️  Failed to record orchestration usage: %v", err)
		}
	}
	if h.snapshots != nil {
		h.snapshots.Invalidate(req.LearnerID)
	}

	return c.JSON(resp)
}
