package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"productapi/internal/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth_WithoutPing(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handlers.NewHealthHandler(nil).HandleHealth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unknown", body["database"])
}

func TestHandleHealth_PingGetsDeadline(t *testing.T) {
	var hadDeadline bool
	app := fiber.New()
	app.Get("/health", handlers.NewHealthHandler(func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}).HandleHealth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, hadDeadline)
}
