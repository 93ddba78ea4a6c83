package v1

import (
	"fmt"

	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/admiralbulldogtv/echotts/src/voices"
	"github.com/gofiber/fiber/v2"
)

func Voices(ctx global.Context, app fiber.Router) {
	svc := ctx.Inst().Voices

	app.Get("/", func(c *fiber.Ctx) error {
		ws := c.Query("workspace_id")
		if ws == "" {
			return sendError(c, fmt.Errorf("%w: workspace_id is required", voices.ErrInvalidRequest))
		}

		profiles, err := svc.List(c.Context(), ws)
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(fiber.Map{"voices": profiles})
	})

	app.Get("/defaults", func(c *fiber.Ctx) error {
		list, err := svc.Defaults(c.Context())
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(fiber.Map{"voices": list})
	})

	// registered before /:id so it is not shadowed
	if ctx.Inst().Events != nil {
		app.Get("/events", Events(ctx))
	}

	app.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(fiber.Map{"voice_profile": p})
	})

	app.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return sendError(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	})
}
