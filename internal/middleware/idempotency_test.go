package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/demo-credit/demo_credit/internal/logging"
)

func setupIdempotencyApp(t *testing.T) (*fiber.App, *atomic.Int64, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))

	var handlerCalls atomic.Int64
	app.Post("/wallet/fund", func(c *fiber.Ctx) error {
		handlerCalls.Add(1)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
	})
	app.Get("/wallet", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, &handlerCalls, cleanup
}

func TestIdempotencyRequiresHeaderOnWrites(t *testing.T) {
	app, _, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodPost, "/wallet/fund", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestIdempotencySkipsReads(t *testing.T) {
	app, _, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodGet, "/wallet", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("GET without key must pass, got %d", resp.StatusCode)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, handlerCalls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	first := httptest.NewRequest(fiber.MethodPost, "/wallet/fund", strings.NewReader("{}"))
	first.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	first.Header.Set(idempotencyKeyHeader, "fund-abc123")

	resp, err := app.Test(first)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	second := httptest.NewRequest(fiber.MethodPost, "/wallet/fund", strings.NewReader("{}"))
	second.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	second.Header.Set(idempotencyKeyHeader, "fund-abc123")

	resp2, err := app.Test(second)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	replayed, err := io.ReadAll(resp2.Body)
	if err != nil {
		t.Fatalf("read replayed body: %v", err)
	}
	resp2.Body.Close()

	if resp2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected replayed status %d got %d", fiber.StatusOK, resp2.StatusCode)
	}
	if string(replayed) != string(payload) {
		t.Fatalf("expected replayed payload %s got %s", payload, replayed)
	}
	if calls := handlerCalls.Load(); calls != 1 {
		t.Fatalf("handler must run once, ran %d times", calls)
	}

	var decoded map[string]any
	if err := json.Unmarshal(replayed, &decoded); err != nil {
		t.Fatalf("replayed payload invalid json: %v", err)
	}
}

func TestIdempotencyDistinctKeysRunIndependently(t *testing.T) {
	app, handlerCalls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	for _, key := range []string{"key-one", "key-two"} {
		req := httptest.NewRequest(fiber.MethodPost, "/wallet/fund", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, key)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request %s: %v", key, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("key %s: expected %d got %d", key, fiber.StatusOK, resp.StatusCode)
		}
	}
	if calls := handlerCalls.Load(); calls != 2 {
		t.Fatalf("expected 2 handler runs, got %d", calls)
	}
}
