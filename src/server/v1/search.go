package v1

import (
	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/gofiber/fiber/v2"
)

func Search(ctx global.Context) func(c *fiber.Ctx) error {
	svc := ctx.Inst().Voices

	return func(c *fiber.Ctx) error {
		videos, err := svc.Search(c.Context(), c.Query("query"))
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(fiber.Map{"videos": videos})
	}
}
