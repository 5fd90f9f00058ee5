package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"muvserver/internal/models"
	"muvserver/internal/services"
	"muvserver/internal/store"
)

// PinHandler handles learner pin requests
type PinHandler struct {
	store     store.Store
	snapshots *services.SnapshotService
}

// NewPinHandler creates a new pin handler
func NewPinHandler(s store.Store, snapshots *services.SnapshotService) *PinHandler {
	return &PinHandler{store: s, snapshots: snapshots}
}

// List returns a learner's unresolved pins
// GET /api/pins?learner_id
func (h *PinHandler) List(c *fiber.Ctx) error {
	learnerID, err := requireLearnerQuery(c)
	if err != nil || learnerID == "" {
		return err
	}

	pins, err := h.store.ListPins(c.Context(), learnerID)
	if err != nil {
		log.Printf("❌ Failed to list pins: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list pins",
		})
	}

	return c.JSON(fiber.Map{
		"pins":  pins,
		"count": len(pins),
	})
}

// Create records a new pin
// POST /api/pins
func (h *PinHandler) Create(c *fiber.Ctx) error {
	var req models.CreatePinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.LearnerID == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "learnerId and content are required",
		})
	}

	pin, err := h.store.CreatePin(c.Context(), req.LearnerID, req.Content, req.Source)
	if err != nil {
		log.Printf("❌ Failed to create pin: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create pin",
		})
	}

	if h.snapshots != nil {
		h.snapshots.Invalidate(req.LearnerID)
	}

	return c.Status(fiber.StatusCreated).JSON(pin)
}

// Resolve marks a pin as handled
// PUT /api/pins/:id/resolve
func (h *PinHandler) Resolve(c *fiber.Ctx) error {
	pinID := c.Params("id")

	pin, err := h.store.ResolvePin(c.Context(), pinID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Pin not found",
			})
		}
		log.Printf("❌ Failed to resolve pin %s: %v", pinID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve pin",
		})
	}

	if h.snapshots != nil {
		h.snapshots.Invalidate(pin.LearnerID)
	}

	return c.JSON(pin)
}
