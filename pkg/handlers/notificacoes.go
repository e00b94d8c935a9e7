package handlers

import (
	"strconv"

	"desabafa/pkg/middleware"
	"desabafa/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type NotificacoesHandler struct {
	notes services.NotificationService
}

func NewNotificacoes(notes services.NotificationService) *NotificacoesHandler {
	return &NotificacoesHandler{notes: notes}
}

func (h *NotificacoesHandler) Register(r fiber.Router, g Guards) {
	r.Get("/notificacoes", g.Auth, h.Listar)
	r.Post("/notificacoes/lidas", g.Auth, h.MarcarTodas)
	r.Post("/notificacoes/:id/lida", g.Auth, h.MarcarLida)
}

func (h *NotificacoesHandler) Listar(c *fiber.Ctx) error {
	list, err := h.notes.List(c.UserContext(), middleware.UserID(c), c.QueryBool("nao_lidas", false))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *NotificacoesHandler) MarcarLida(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return badRequest(c, "ID inválido")
	}
	if err := h.notes.MarkRead(c.UserContext(), middleware.UserID(c), id); err != nil {
		return err
	}
	return c.SendStatus(204)
}

func (h *NotificacoesHandler) MarcarTodas(c *fiber.Ctx) error {
	n, err := h.notes.MarkAllRead(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"marcadas": n})
}
