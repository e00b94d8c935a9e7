package middleware

import (
	"time"

	"desabafa/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// WriteLimiter throttles write routes per user, falling back to the client
// IP for anonymous callers.
func WriteLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := UserID(c); id != "" {
				return "u:" + id
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			e := apperr.RateLimited()
			return c.Status(e.Status).JSON(e)
		},
	})
}
