package middleware

import (
	"strings"

	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/internal/model"
	"go-sales-ledger/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// UserKey is the Locals key holding the authenticated *model.User.
const UserKey = "user"

const msgInvalidCredentials = "Invalid Credentials"

// RequireAuth validates the bearer access token and binds the user it names
// to the request.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperr.Unauthorized(msgInvalidCredentials)
		}

		// Extract token from "Bearer <token>"
		scheme, token, _ := strings.Cut(header, " ")
		if scheme != "Bearer" || token == "" {
			return apperr.Forbidden(msgInvalidCredentials)
		}

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(UserKey, user)
		return c.Next()
	}
}

// RequireSocketAuth guards the websocket upgrade. Browsers cannot set headers
// on a websocket handshake, so the access token may come in ?token=.
func RequireSocketAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		if token == "" {
			if scheme, value, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " "); ok && scheme == "Bearer" {
				token = value
			}
		}
		if token == "" {
			return apperr.Unauthorized(msgInvalidCredentials)
		}

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(UserKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user bound by RequireAuth, or nil on public routes.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(UserKey).(*model.User)
	return user
}

// Caller is the typed identity handlers pass to services.
func Caller(c *fiber.Ctx) (model.Caller, error) {
	user := CurrentUser(c)
	if user == nil {
		return model.Caller{}, apperr.Unauthorized(msgInvalidCredentials)
	}
	return user.Caller(), nil
}
