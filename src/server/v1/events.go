package v1

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/admiralbulldogtv/echotts/src/registry"
	"github.com/admiralbulldogtv/echotts/src/voices"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Events streams profile status changes of one workspace as server sent events.
func Events(ctx global.Context) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ws := c.Query("workspace_id")
		if ws == "" {
			return sendError(c, fmt.Errorf("%w: workspace_id is required", voices.ErrInvalidRequest))
		}

		localCtx, cancel := context.WithCancel(context.Background())
		subCh := make(chan string, 10)

		if err := ctx.Inst().Events.Subscribe(localCtx, subCh, registry.EventChannel(ws)); err != nil {
			cancel()
			logrus.WithError(err).WithField("workspace_id", ws).Error("failed to subscribe to profile events")
			return sendError(c, err)
		}

		go func() {
			defer cancel()
			select {
			case <-ctx.Done():
			case <-localCtx.Done():
			}
		}()

		reqCtx := c.Context()
		reqCtx.SetContentType("text/event-stream")
		reqCtx.Response.Header.Set("Cache-Control", "no-cache")
		reqCtx.Response.Header.Set("Connection", "keep-alive")
		reqCtx.Response.Header.Set("X-Accel-Buffering", "no")

		reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
			tick := time.NewTicker(time.Second * 30)
			defer func() {
				cancel()
				tick.Stop()
			}()

			if err := writeEvent(w, "ready", "voices-event-sub.v1"); err != nil {
				return
			}
			for {
				select {
				case <-localCtx.Done():
					drainEvents(w, subCh)
					return
				case <-tick.C:
					if err := writeEvent(w, "heartbeat", "{}"); err != nil {
						return
					}
				case msg := <-subCh:
					if err := writeEvent(w, "profile", msg); err != nil {
						return
					}
				}
			}
		})

		return nil
	}
}

// drainEvents writes the events that were already delivered when the stream ends.
func drainEvents(w *bufio.Writer, subCh chan string) {
	for {
		select {
		case msg := <-subCh:
			if err := writeEvent(w, "profile", msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func writeEvent(w *bufio.Writer, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
