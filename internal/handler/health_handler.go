package handler

import (
	"context"
	"time"

	"go-sales-ledger/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.store.PingContext(ctx); err != nil {
		return apperr.Unavailable("Database unavailable", err)
	}
	return Respond(c, fiber.StatusOK, "OK", nil)
}
