package metrics

import (
	"errors"
	"strconv"
	"time"

	"desabafa/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	PostsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desabafa_posts_created_total",
			Help: "Posts created, by category",
		},
		[]string{"tipo"},
	)
	CommentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desabafa_comments_created_total",
			Help: "Comments created, split into roots and replies",
		},
		[]string{"kind"},
	)
	ReactionsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desabafa_reactions_toggled_total",
			Help: "Reaction toggles by target and resulting state",
		},
		[]string{"target", "liked"},
	)
	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desabafa_quota_rejections_total",
			Help: "Writes refused by the daily quota",
		},
		[]string{"kind"},
	)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desabafa_cache_lookups_total",
			Help: "Feed cache lookups by result",
		},
		[]string{"result"},
	)
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "desabafa_ws_connections",
			Help: "Open WebSocket connections",
		},
	)
)

// Middleware records count and latency per route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		route := c.Route().Path
		HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if ae, ok := apperr.As(err); ok {
		return ae.Status
	}
	return fiber.StatusInternalServerError
}
