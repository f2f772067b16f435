package middleware

import (
	"errors"
	"time"

	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count, latency and in-flight gauge. Requests are
// labelled by route template so /product/:id stays one series.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		m.InFlight(1)
		defer m.InFlight(-1)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; take the status it will use.
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			} else {
				status = apperr.Status(err)
			}
		}

		m.ObserveHTTP(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
