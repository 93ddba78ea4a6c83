package v1

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/admiralbulldogtv/echotts/src/voices"
	"github.com/gofiber/fiber/v2"
)

func Clone(ctx global.Context) func(c *fiber.Ctx) error {
	svc := ctx.Inst().Voices
	limit := int64(ctx.Config().MaxAudioSize)

	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("audio")
		if err != nil {
			return sendError(c, fmt.Errorf("%w: audio file is required", voices.ErrInvalidRequest))
		}

		f, err := fh.Open()
		if err != nil {
			return sendError(c, err)
		}
		defer f.Close()

		// one byte past the cap is enough for the size check
		data, err := ioutil.ReadAll(io.LimitReader(f, limit+1))
		if err != nil {
			return sendError(c, err)
		}

		p, err := svc.Clone(c.Context(), voices.CloneRequest{
			WorkspaceID: c.FormValue("workspace_id"),
			Name:        c.FormValue("name"),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Audio:       data,
		})
		if err != nil {
			return sendError(c, err)
		}

		return c.JSON(fiber.Map{"success": true, "voice_profile": p})
	}
}

func CloneYouTube(ctx global.Context) func(c *fiber.Ctx) error {
	svc := ctx.Inst().Voices

	return func(c *fiber.Ctx) error {
		req := voices.VideoCloneRequest{}
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return sendError(c, fmt.Errorf("%w: %s", voices.ErrInvalidRequest, err.Error()))
		}

		p, err := svc.CloneFromVideo(c.Context(), req)
		if err != nil {
			return sendError(c, err)
		}

		return c.JSON(fiber.Map{"success": true, "voice_profile": p})
	}
}
