package handler

import (
	"go-sales-ledger/internal/middleware"
	"go-sales-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const msgTransactionNotFound = "Transaction not found"

type TransactionHandler struct {
	service service.TransactionService
}

func NewTransactionHandler(s service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// GET /transaction
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}

	page, err := h.service.List(c.UserContext(), caller, listParams(c))
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "", page)
}

// GET /transaction/:id
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, msgTransactionNotFound)
	if err != nil {
		return err
	}

	transaction, err := h.service.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "", transaction)
}

// Create records a sale and its line items atomically.
// POST /transaction
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	var req service.TransactionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	transaction, err := h.service.Create(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "Transaction created!", transaction)
}

// Update replaces header fields and every line item.
// PUT /transaction/:id
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, msgTransactionNotFound)
	if err != nil {
		return err
	}
	var req service.TransactionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	transaction, err := h.service.Update(c.UserContext(), caller, id, req)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "Transaction updated!", transaction)
}

// DELETE /transaction/:id
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, msgTransactionNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "Transaction deleted successfully", nil)
}
