package handlers

import (
	"desabafa/pkg/middleware"
	"desabafa/pkg/models"
	"desabafa/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type PerfilHandler struct {
	profiles services.ProfileService
}

func NewPerfil(profiles services.ProfileService) *PerfilHandler {
	return &PerfilHandler{profiles: profiles}
}

func (h *PerfilHandler) Register(r fiber.Router, g Guards) {
	r.Get("/perfil/me", g.Auth, h.Me)
	r.Patch("/perfil/me", g.Auth, g.Write, h.Atualizar)
	r.Post("/perfil/me/premium", g.Auth, h.Premium)
	r.Get("/perfil/:apelido", h.Publico)
}

func (h *PerfilHandler) Me(c *fiber.Ctx) error {
	p, err := h.profiles.Me(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *PerfilHandler) Atualizar(c *fiber.Ctx) error {
	var req models.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "JSON inválido")
	}
	p, err := h.profiles.Update(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *PerfilHandler) Premium(c *fiber.Ctx) error {
	p, err := h.profiles.Upgrade(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *PerfilHandler) Publico(c *fiber.Ctx) error {
	p, err := h.profiles.Public(c.UserContext(), c.Params("apelido"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}
