package handler

import (
	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// listParams reads ?page&limit&search. Non-numeric values fall back to the
// defaults; the service clamps the rest.
func listParams(c *fiber.Ctx) service.ListParams {
	return service.ListParams{
		Page:   c.QueryInt("page", service.DefaultPage),
		Limit:  c.QueryInt("limit", service.DefaultLimit),
		Search: c.Query("search"),
	}
}

// pathID parses :id. A malformed id cannot name an existing row, so it is
// reported with the same not-found message as a missing one.
func pathID(c *fiber.Ctx, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound(notFound)
	}
	return id, nil
}
