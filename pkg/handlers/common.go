package handlers

import (
	"desabafa/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Guards are the middleware a handler mounts on its routes.
type Guards struct {
	Auth     fiber.Handler
	Optional fiber.Handler
	Write    fiber.Handler
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(400).JSON(fiber.Map{"erro": msg, "codigo": apperr.CodeValidation})
}

// idParam reads a UUID path parameter.
func idParam(c *fiber.Ctx, name string) (string, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// optionalID normalizes an optional UUID body field. Empty stays unset.
func optionalID(field string, v *string) (*string, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*v)
	if err != nil {
		return nil, apperr.Validation(field, "Identificador inválido")
	}
	s := id.String()
	return &s, nil
}
