package health

import (
	"context"
	"time"

	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/gofiber/fiber/v2"

	log "github.com/sirupsen/logrus"
)

func Health(ctx global.Context, app fiber.Router) {
	svc := ctx.Inst().Voices
	backend := ctx.Config().Store.Backend

	app.Get("/", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.Context(), time.Second*10)
		defer cancel()

		status := "ok"
		code := fiber.StatusOK
		if err := svc.Registry().Ping(pingCtx); err != nil {
			log.WithError(err).WithField("store", backend).Error("health, STORE IS DOWN")
			status = "down"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status":                 status,
			"service":                "echo-tts",
			"eleven_labs_configured": svc.Configured(),
			"store":                  backend,
		})
	})
}
