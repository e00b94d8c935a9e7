package server

import (
	"errors"

	"desabafa/pkg/apperr"
	"desabafa/pkg/logger"
	"desabafa/pkg/metrics"
	"desabafa/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func NewApp(name string, origins []string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:           name,
		ReduceMemoryUsage: true,
		ErrorHandler:      ErrorHandler,
	})

	app.Use(metrics.Middleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(cors.New(middleware.CORSConfig(origins)))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": name})
	})

	return app
}

// ErrorHandler renders every error as {"erro", "codigo"}. Internal causes
// are logged and never sent to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := apperr.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = apperr.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			code = apperr.CodeValidation
		case fiber.StatusUnauthorized:
			code = apperr.CodeUnauthorized
		case fiber.StatusTooManyRequests:
			code = apperr.CodeRateLimited
		}
		return c.Status(fe.Code).JSON(fiber.Map{"erro": fe.Message, "codigo": code})
	}

	e := apperr.From(err)
	if e.Code == apperr.CodeInternal || e.Code == apperr.CodeUnavailable {
		logger.Named("http").Error("requisição falhou",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(e.Status).JSON(e)
}
