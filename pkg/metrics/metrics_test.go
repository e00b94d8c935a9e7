package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"desabafa/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRoutes(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/posts/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/falha", func(c *fiber.Ctx) error { return apperr.NotFound("Post") })
	app.Get("/metrics", Handler())

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "200"))
	resp, err := app.Test(httptest.NewRequest("GET", "/posts/123", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "200")))

	_, err = app.Test(httptest.NewRequest("GET", "/falha", nil))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/falha", "404")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http_requests_total")
}
