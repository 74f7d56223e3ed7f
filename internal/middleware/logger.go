package middleware

import (
	"time"

	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
)

// RequestLogger logs one line per request after the error handler has set the status
func RequestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := logger.Log.Info()
		if status >= fiber.StatusInternalServerError {
			event = logger.Log.Error()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.OriginalURL()).
			Str("ip", c.IP()).
			Str("user-agent", c.Get(fiber.HeaderUserAgent)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("Request processed")

		return nil
	}
}
