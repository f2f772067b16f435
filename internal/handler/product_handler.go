package handler

import (
	"go-sales-ledger/internal/middleware"
	"go-sales-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const msgProductNotFound = "Product not found"

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// GET /product
func (h *ProductHandler) List(c *fiber.Ctx) error {
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

// GET /product/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, msgProductNotFound)
	if err != nil {
		return err
	}

	product, err := h.service.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "", product)
}

// POST /product
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	var req service.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product, err := h.service.Create(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusCreated, "Product created successfully", product)
}

// PUT /product/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, msgProductNotFound)
	if err != nil {
		return err
	}
	var req service.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product, err := h.service.Update(c.UserContext(), caller, id, req)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "Product updated successfully", product)
}

// DELETE /product/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, msgProductNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "Product deleted successfully", nil)
}
