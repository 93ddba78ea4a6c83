package v1

import (
	"bufio"
	"fmt"
	"io"

	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/admiralbulldogtv/echotts/src/voices"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func parseSynthesize(c *fiber.Ctx) (voices.SynthesizeRequest, error) {
	req := voices.SynthesizeRequest{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return req, fmt.Errorf("%w: %s", voices.ErrInvalidRequest, err.Error())
	}
	return req, nil
}

func Synthesize(ctx global.Context) func(c *fiber.Ctx) error {
	svc := ctx.Inst().Voices

	return func(c *fiber.Ctx) error {
		req, err := parseSynthesize(c)
		if err != nil {
			return sendError(c, err)
		}

		data, err := svc.Synthesize(c.Context(), req)
		if err != nil {
			return sendError(c, err)
		}

		c.Set(fiber.HeaderContentType, voices.ContentTypeMPEG)
		c.Set(fiber.HeaderContentDisposition, "attachment; filename=speech.mp3")
		return c.Send(data)
	}
}

func SynthesizeStream(ctx global.Context) func(c *fiber.Ctx) error {
	svc := ctx.Inst().Voices

	return func(c *fiber.Ctx) error {
		req, err := parseSynthesize(c)
		if err != nil {
			return sendError(c, err)
		}

		// the body outlives the handler, so it hangs off the process context rather than the request
		body, err := svc.SynthesizeStream(ctx, req)
		if err != nil {
			return sendError(c, err)
		}

		reqCtx := c.Context()
		reqCtx.SetContentType(voices.ContentTypeMPEG)
		reqCtx.Response.Header.Set("Cache-Control", "no-cache")
		reqCtx.Response.Header.Set("X-Accel-Buffering", "no")

		reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
			defer body.Close()
			if err := relay(w, body); err != nil {
				logrus.WithError(err).Debug("speech stream ended early")
			}
		})

		return nil
	}
}

// relay copies r to w, flushing after every chunk read.
func relay(w *bufio.Writer, r io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if ferr := w.Flush(); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
