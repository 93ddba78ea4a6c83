package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).Milliseconds(),
			"ip":       c.IP(),
		})
		if err != nil {
			entry.WithError(err).Error("request failed")
		} else {
			entry.Debug("request")
		}

		return err
	}
}
