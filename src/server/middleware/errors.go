package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders every error that reaches fiber, its own included, as {"detail": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return c.Status(ferr.Code).JSON(fiber.Map{"detail": ferr.Message})
	}

	logrus.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"detail": utils.StatusMessage(fiber.StatusInternalServerError),
	})
}
