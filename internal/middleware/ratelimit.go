package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP)
	GlobalAPIMax        int           // Max requests per minute for all API endpoints
	GlobalAPIExpiration time.Duration // Expiration window

	// Orchestration limits (per learner) - the expensive path
	OrchestrateMax        int
	OrchestrateExpiration time.Duration

	// Write endpoint limits (per learner)
	WriteMax        int
	WriteExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Global: 200/min = ~3.3 req/sec - very generous for normal use
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		// Orchestration: 30/min (classification plus plugin fan-out)
		OrchestrateMax:        30,
		OrchestrateExpiration: 1 * time.Minute,

		// Writes: 60/min = 1 req/sec average
		WriteMax:        60,
		WriteExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	// Allow environment overrides for tuning
	if v := os.Getenv("RATE_LIMIT_GLOBAL_API"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.GlobalAPIMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_ORCHESTRATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.OrchestrateMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_WRITE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.WriteMax = n
		}
	}

	// Development mode: more lenient limits
	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		config.OrchestrateMax = 300
		config.WriteMax = 600
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
// This is the first line of defense against abuse
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.GlobalAPIExpiration.Seconds()),
			})
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
	})
}

// OrchestrateRateLimiter covers the orchestration endpoint (uses learner ID)
func OrchestrateRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.OrchestrateMax,
		Expiration: config.OrchestrateExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Use learner ID if available, fall back to IP
			if learnerID, ok := c.Locals("learner_id").(string); ok && learnerID != "" {
				return "orchestrate:" + learnerID
			}
			return "orchestrate-ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Orchestrate limit reached for: %v", c.Locals("learner_id"))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Orchestration rate limit reached. Please wait before trying again.",
				"retry_after": int(config.OrchestrateExpiration.Seconds()),
			})
		},
	})
}

// WriteRateLimiter for mutating endpoints (uses learner ID)
func WriteRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.WriteMax,
		Expiration: config.WriteExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if learnerID, ok := c.Locals("learner_id").(string); ok && learnerID != "" {
				return "write:" + learnerID
			}
			return "write-ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Write limit reached for: %v on %s", c.Locals("learner_id"), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please wait before trying again.",
				"retry_after": int(config.WriteExpiration.Seconds()),
			})
		},
	})
}
