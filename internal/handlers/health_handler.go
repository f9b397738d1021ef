package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports process and database status.
type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler creates a HealthHandler. ping checks the database.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// HandleHealth always answers 200; the database field tells whether storage is reachable.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	database := "up"
	if h.ping == nil {
		database = "unknown"
	} else {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			database = "down"
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"database": database,
		"time":     time.Now().Format(time.RFC3339),
	})
}
