package logging

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	res, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.Header.Get(RequestIDHeader) == "" {
		t.Fatalf("expected %s header to be set", RequestIDHeader)
	}
	if !strings.Contains(buf.String(), `"path":"/ping"`) {
		t.Fatalf("expected request log line, got %q", buf.String())
	}
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	})

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	res, _ := app.Test(req)
	if got := res.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected incoming id to be echoed, got %q", got)
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("expected 4xx to log at warn level, got %q", buf.String())
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if parseLevel("nonsense").String() != "info" {
		t.Fatalf("unexpected default level")
	}
}
