package handler

import (
	"go-sales-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates an account. No session is issued.
// POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if _, err := h.authService.Register(c.UserContext(), req); err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "User registered successfully", nil)
}

// Login handles user authentication
// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "", resp)
}

// Refresh exchanges the current refresh token for a new access token.
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req service.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Refresh(c.UserContext(), req)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, "", resp)
}
