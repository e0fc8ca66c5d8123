package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDReusesIncomingHeader(t *testing.T) {
	var seen string

	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		seen = GetCorrelationID(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "corr-123", seen)
	require.Equal(t, "corr-123", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDGeneratesWhenAbsent(t *testing.T) {
	var seen string

	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		seen = GetCorrelationID(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, resp.Header.Get("X-Correlation-ID"))
}

// The context helpers carry the id across service boundaries: the queue
// publisher reads it from the request context and the consumer restores it
// for the handler.
func TestContextWithCorrelationRoundTrip(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), "corr-123")
	require.Equal(t, "corr-123", CorrelationIDFromContext(ctx))

	require.Empty(t, CorrelationIDFromContext(context.Background()))

	unchanged := ContextWithCorrelation(context.Background(), "   ")
	require.Empty(t, CorrelationIDFromContext(unchanged))
}
