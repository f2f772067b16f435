package middleware

import (
	"math"
	"strconv"

	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Throttle limits requests per client IP under the given key prefix. When
// the limiter itself fails the request is let through and the error logged.
func Throttle(limiter ratelimit.Limiter, prefix string, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := limiter.Allow(c.UserContext(), prefix+":"+c.IP())
		if err != nil {
			log.WithError(err).WithField("ip", c.IP()).Warn("rate limiter unavailable")
			return c.Next()
		}

		if !res.Allowed {
			seconds := int(math.Ceil(res.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return apperr.TooManyRequests("Too many requests, please try again later")
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		return c.Next()
	}
}
