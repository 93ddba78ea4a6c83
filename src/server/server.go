package server

import (
	"strings"
	"time"

	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/admiralbulldogtv/echotts/src/server/health"
	"github.com/admiralbulldogtv/echotts/src/server/middleware"
	v1 "github.com/admiralbulldogtv/echotts/src/server/v1"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// App builds the http app without starting it.
func App(ctx global.Context) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		// uploads above the clone cap must reach the handler to be rejected with 413
		BodyLimit:    ctx.Config().MaxAudioSize + 1024*1024,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(middleware.Logger())
	app.Use(recover.New())

	app.Use(cors.New(corsConfig(ctx.Config().Cors)))

	health.Health(ctx, app.Group("/health"))
	v1.Api(ctx, app.Group("/v1", middleware.Auth(ctx.Config().JwtSecret)))

	app.Use("/", func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{"detail": "Not Found"})
	})

	return app
}

// corsConfig allows credentials only for an explicit origin list, browsers reject them with a wildcard.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowCredentials: true,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowCredentials = false
		}
	}
	return cfg
}

func New(ctx global.Context) <-chan struct{} {
	done := make(chan struct{})

	app := App(ctx)

	go func() {
		if err := app.Listen(ctx.Config().ApiBind); err != nil {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
		close(done)
	}()

	logrus.Infof("Api started on %s", ctx.Config().ApiBind)

	return done
}
