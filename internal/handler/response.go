package handler

import (
	"errors"

	"go-sales-ledger/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the Locals key the requestid middleware writes to.
const RequestIDKey = "request_id"

// Envelope wraps every response body.
type Envelope struct {
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   *string     `json:"message"`
	Data      interface{} `json:"data"`
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Respond writes a success envelope. An empty message is sent as null.
func Respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{
		RequestID: requestID(c),
		Success:   true,
		Message:   nullable(message),
		Data:      data,
	})
}

// ErrorHandler renders any error returned by a handler or middleware as a
// failure envelope. Internal causes are logged, never returned.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fiberErr *fiber.Error
		if appErr, ok := apperr.As(err); ok {
			status = apperr.Status(appErr)
			message = appErr.Message
		} else if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		}

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"method":     c.Method(),
			"path":       c.OriginalURL(),
			"status":     status,
		})
		if status >= fiber.StatusInternalServerError {
			entry.WithError(err).Error(message)
		} else {
			entry.Warn(message)
		}

		return c.Status(status).JSON(Envelope{
			RequestID: requestID(c),
			Success:   false,
			Message:   &message,
			Data:      nil,
		})
	}
}

// NotFound answers routes that match nothing.
func NotFound(c *fiber.Ctx) error {
	return apperr.NotFound("Route not found")
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	return nil
}
