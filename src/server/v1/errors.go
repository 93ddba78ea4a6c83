package v1

import (
	"errors"

	"github.com/admiralbulldogtv/echotts/src/instances"
	"github.com/admiralbulldogtv/echotts/src/voices"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var statusByError = []struct {
	err    error
	status int
}{
	{voices.ErrInvalidRequest, fiber.StatusBadRequest},
	{voices.ErrServiceUnavailable, fiber.StatusServiceUnavailable},
	{voices.ErrPayloadTooLarge, fiber.StatusRequestEntityTooLarge},
	{instances.ErrNotFound, fiber.StatusNotFound},
	{voices.ErrNotReady, fiber.StatusBadRequest},
	{voices.ErrTimeout, fiber.StatusGatewayTimeout},
	{voices.ErrDownload, fiber.StatusBadRequest},
	{voices.ErrAdapter, fiber.StatusInternalServerError},
}

func errorStatus(err error) int {
	var perr *instances.ProviderError
	if errors.As(err, &perr) {
		return fiber.StatusBadGateway
	}
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusInternalServerError
}

func sendError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status >= 500 {
		logrus.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"detail": err.Error()})
}
