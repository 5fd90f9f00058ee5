package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"muvserver/internal/database"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Handle returns the server health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	health := "healthy"
	dbStatus := "ok"
	status := fiber.StatusOK
	if err := h.db.Ping(); err != nil {
		health = "degraded"
		dbStatus = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":    health,
		"service":   "muv-server",
		"database":  dbStatus,
		"driver":    h.db.Driver(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
