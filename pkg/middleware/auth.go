package middleware

import (
	"strings"

	"desabafa/pkg/services"

	"github.com/gofiber/fiber/v2"
)

const localUserID = "user_id"

// AuthMiddleware rejects requests without a valid bearer access token.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearer(c)
		if tokenStr == "" {
			return c.Status(401).JSON(fiber.Map{"erro": "Token não informado", "codigo": "UNAUTHORIZED"})
		}

		userID, err := services.ParseAccessToken(secret, tokenStr)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"erro": "Token inválido", "codigo": "UNAUTHORIZED"})
		}

		c.Locals(localUserID, userID)
		return c.Next()
	}
}

// OptionalAuth identifies the viewer when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr := bearer(c); tokenStr != "" {
			if userID, err := services.ParseAccessToken(secret, tokenStr); err == nil {
				c.Locals(localUserID, userID)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func bearer(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}
