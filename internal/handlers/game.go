package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"muvserver/internal/models"
	"muvserver/internal/plugins"
	"muvserver/internal/services"
)

// GameHandler handles game run generation and outcome reporting
type GameHandler struct {
	game      *plugins.GamePlugin
	snapshots *services.SnapshotService
}

// NewGameHandler creates a new game handler
func NewGameHandler(game *plugins.GamePlugin, snapshots *services.SnapshotService) *GameHandler {
	return &GameHandler{game: game, snapshots: snapshots}
}

// Generate builds a practice game run targeting weak points
// POST /api/game/generate
func (h *GameHandler) Generate(c *fiber.Ctx) error {
	var req models.GenerateGameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.LearnerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "learnerId is required",
		})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	game := h.game.GenerateGame(req.SessionID, req.LearnerID, req.WeakPointIDs, req.Vibe, req.TemplatesAllowed)
	return c.JSON(game)
}

// Outcome scores a finished game run and applies mastery updates
// POST /api/game/outcome
func (h *GameHandler) Outcome(c *fiber.Ctx) error {
	var req models.GameOutcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.LearnerID == "" || req.GameRunID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "learnerId and gameRunId are required",
		})
	}

	report, err := h.game.ReportOutcome(c.Context(), req)
	if err != nil {
		log.Printf("❌ Failed to score game run %s: %v", req.GameRunID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to score game run",
		})
	}

	if h.snapshots != nil {
		h.snapshots.Invalidate(req.LearnerID)
	}

	log.Printf("✅ Game run %s scored for learner %s (score: %.2f)", req.GameRunID, req.LearnerID, report.Score)
	return c.JSON(report)
}
