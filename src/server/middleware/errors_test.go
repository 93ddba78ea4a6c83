package middleware

import (
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler, BodyLimit: 16})
	app.Use(recover.New())

	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("segment out of range")
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return fiber.ErrBadRequest
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("connection reset")
	})
	app.Post("/upload", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name   string
		req    *http.Request
		status int
		detail string
	}{
		{"panic", httptest.NewRequest(http.MethodGet, "/panic", nil), http.StatusInternalServerError, "Internal Server Error"},
		{"fiber error", httptest.NewRequest(http.MethodGet, "/bad", nil), http.StatusBadRequest, "Bad Request"},
		{"plain error", httptest.NewRequest(http.MethodGet, "/plain", nil), http.StatusInternalServerError, "Internal Server Error"},
		{"body limit", httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("a", 64))), http.StatusRequestEntityTooLarge, "Request Entity Too Large"},
		{"no route", httptest.NewRequest(http.MethodGet, "/missing", nil), http.StatusNotFound, "Cannot GET /missing"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp, err := app.Test(test.req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := ioutil.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, test.status, resp.StatusCode)
			assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get("Content-Type"))
			assert.Equal(t, test.detail, jsoniter.Get(body, "detail").ToString())
		})
	}
}
