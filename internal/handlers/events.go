package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"muvserver/internal/models"
	"muvserver/internal/store"
)

// EventHandler handles audit log reads and offline queue replay
type EventHandler struct {
	store store.Store
}

// NewEventHandler creates a new event handler
func NewEventHandler(s store.Store) *EventHandler {
	return &EventHandler{store: s}
}

// List returns recent audit log entries, newest first
// GET /api/events?learner_id=&limit=
func (h *EventHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "0"))

	events, err := h.store.ListEvents(c.Context(), c.Query("learner_id"), limit)
	if err != nil {
		log.Printf("❌ Failed to list events: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list events",
		})
	}

	return c.JSON(fiber.Map{
		"events": events,
		"count":  len(events),
	})
}

// Sync replays a batch of events queued while the client was offline
// POST /api/events/sync
func (h *EventHandler) Sync(c *fiber.Ctx) error {
	var req models.SyncEventsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Events) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No events provided",
		})
	}

	// Limit batch size to prevent abuse
	if len(req.Events) > 500 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Maximum 500 events per sync",
		})
	}

	synced := 0
	failed := 0
	for _, event := range req.Events {
		if event.EventType == "" {
			failed++
			continue
		}

		payload := make(map[string]any, len(event.Payload)+1)
		for k, v := range event.Payload {
			payload[k] = v
		}
		if event.OriginalTimestamp != "" {
			payload["originalTimestamp"] = event.OriginalTimestamp
		}

		if _, err := h.store.AppendEvent(c.Context(), event.LearnerID, event.EventType, payload); err != nil {
			log.Printf("⚠️  Failed to sync event %s: %v", event.EventType, err)
			failed++
			continue
		}
		synced++
	}

	log.Printf("✅ Event sync: %d synced, %d failed", synced, failed)
	return c.JSON(fiber.Map{
		"synced": synced,
		"failed": failed,
	})
}
