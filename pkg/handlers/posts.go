package handlers

import (
	"desabafa/pkg/middleware"
	"desabafa/pkg/models"
	"desabafa/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type PostsHandler struct {
	social    services.SocialService
	comments  services.CommentService
	reactions services.ReactionService
}

func NewPosts(social services.SocialService, comments services.CommentService, reactions services.ReactionService) *PostsHandler {
	return &PostsHandler{social: social, comments: comments, reactions: reactions}
}

func (h *PostsHandler) Register(r fiber.Router, g Guards) {
	r.Get("/posts", g.Optional, h.ListarFeed)
	r.Get("/posts/:id", g.Optional, h.BuscarPost)
	r.Post("/posts", g.Auth, g.Write, h.CriarPost)
	r.Delete("/posts/:id", g.Auth, h.RemoverPost)

	r.Get("/posts/:id/comentarios", g.Optional, h.ListarComentarios)
	r.Post("/posts/:id/comentarios", g.Auth, g.Write, h.Comentar)
	r.Delete("/comentarios/:id", g.Auth, h.RemoverComentario)

	r.Post("/posts/:id/reacao", g.Auth, g.Write, h.CurtirPost)
	r.Post("/comentarios/:id/reacao", g.Auth, g.Write, h.CurtirComentario)
}

func (h *PostsHandler) ListarFeed(c *fiber.Ctx) error {
	f := models.FeedFilter{
		Tipo:   models.Category(c.Query("tipo")),
		Ordem:  models.FeedOrder(c.Query("ordem", string(models.FeedRecent))),
		Last24: c.Query("janela") == "24h",
		Limit:  c.QueryInt("limit", 0),
	}

	posts, err := h.social.Feed(c.UserContext(), f, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

func (h *PostsHandler) BuscarPost(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "ID inválido")
	}
	p, err := h.social.Post(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *PostsHandler) CriarPost(c *fiber.Ctx) error {
	var req models.NewPost
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "JSON inválido")
	}

	p, err := h.social.Create(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.Status(201).JSON(p)
}

func (h *PostsHandler) RemoverPost(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "ID inválido")
	}
	if err := h.social.Remove(c.UserContext(), middleware.UserID(c), id); err != nil {
		return err
	}
	return c.SendStatus(204)
}

func (h *PostsHandler) ListarComentarios(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "ID inválido")
	}

	page, err := h.comments.Page(c.UserContext(), id, middleware.UserID(c),
		c.QueryInt("offset", 0),
		c.QueryInt("limit", services.DefaultCommentPage),
		models.ParseCommentOrder(c.Query("ordem")),
	)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *PostsHandler) Comentar(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "ID inválido")
	}
	var req models.NewComment
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "JSON inválido")
	}
	parentID, err := optionalID("parent_id", req.ParentID)
	if err != nil {
		return err
	}
	req.ParentID = parentID

	comment, err := h.comments.Create(c.UserContext(), middleware.UserID(c), id, req)
	if err != nil {
		return err
	}
	return c.Status(201).JSON(comment)
}

func (h *PostsHandler) RemoverComentario(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "ID inválido")
	}
	if err := h.comments.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
		return err
	}
	return c.SendStatus(204)
}

func (h *PostsHandler) CurtirPost(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "ID inválido")
	}
	res, err := h.reactions.TogglePost(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *PostsHandler) CurtirComentario(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "ID inválido")
	}
	res, err := h.reactions.ToggleComment(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(res)
}
