package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"drivesync/pkg/logger"
)

// RequestLogger records one structured log line per request through the
// dispatch surface, grounded on the same category/action shape the error
// handler already uses.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.API("request", "handled dispatch request", map[string]interface{}{
			"path":        c.Path(),
			"method":      c.Method(),
			"status_code": c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		})

		return err
	}
}
