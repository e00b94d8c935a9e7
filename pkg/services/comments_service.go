package services

import (
	"context"
	"fmt"

	"desabafa/pkg/apperr"
	"desabafa/pkg/logger"
	"desabafa/pkg/metrics"
	"desabafa/pkg/models"
	"desabafa/pkg/repository"

	"go.uber.org/zap"
)

const (
	DefaultCommentPage = 10
	MaxCommentPage     = 50
)

type CommentService interface {
	Page(ctx context.Context, postID, viewerID string, offset, limit int, order models.CommentOrder) (models.CommentPage, error)
	Create(ctx context.Context, userID, postID string, nc models.NewComment) (models.Comment, error)
	Delete(ctx context.Context, userID, commentID string) error
}

type commentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	profiles ProfileService
	quota    QuotaService
	notes    NotificationService
	cache    Cache
	log      *zap.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	profiles ProfileService,
	quota QuotaService,
	notes NotificationService,
	cache Cache,
) CommentService {
	if cache == nil {
		cache = nopCache{}
	}
	return &commentService{
		comments: comments,
		posts:    posts,
		profiles: profiles,
		quota:    quota,
		notes:    notes,
		cache:    cache,
		log:      logger.Named("comentarios"),
	}
}

func (s *commentService) Page(ctx context.Context, postID, viewerID string, offset, limit int, order models.CommentOrder) (models.CommentPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultCommentPage
	}
	if limit > MaxCommentPage {
		limit = MaxCommentPage
	}

	list, total, err := s.comments.Page(ctx, postID, viewerID, offset, limit, order)
	if err != nil {
		return models.CommentPage{}, storeErr(err, "Post")
	}
	return models.CommentPage{Comentarios: list, Total: total}, nil
}

func (s *commentService) Create(ctx context.Context, userID, postID string, nc models.NewComment) (models.Comment, error) {
	if err := requireUser(userID); err != nil {
		return models.Comment{}, err
	}
	nc.Normalize()
	if err := nc.Validate(); err != nil {
		return models.Comment{}, err
	}

	if _, err := s.posts.AuthorOf(ctx, postID); err != nil {
		return models.Comment{}, storeErr(err, "Post")
	}

	var parent *models.Comment
	if nc.ParentID != nil {
		p, err := s.comments.Get(ctx, *nc.ParentID, "")
		if err != nil {
			return models.Comment{}, storeErr(err, "Comentário")
		}
		if p.PostID != postID {
			return models.Comment{}, apperr.Validation("parent_id", "O comentário respondido é de outro post")
		}
		if !p.IsRoot() {
			return models.Comment{}, apperr.Validation("parent_id", "Não é possível responder a uma resposta")
		}
		parent = &p
	}

	profile, err := s.profiles.Ensure(ctx, userID)
	if err != nil {
		return models.Comment{}, err
	}
	if err := s.quota.Reserve(ctx, userID, profile.Plano, models.QuotaComment); err != nil {
		return models.Comment{}, err
	}

	var autor *string
	if !models.Anonymous(nc.Anonimo, profile.MostrarApelido) {
		autor = &userID
	}

	c, err := s.comments.Create(ctx, postID, autor, nc.ParentID, nc.Conteudo)
	if err != nil {
		s.quota.Release(ctx, userID, models.QuotaComment)
		return models.Comment{}, storeErr(err, "Post")
	}

	kind := "raiz"
	if parent != nil {
		kind = "resposta"
		if parent.AutorID != nil && *parent.AutorID != userID {
			s.notes.Notify(ctx, models.Notification{
				UserID:   *parent.AutorID,
				Tipo:     models.NotifyReply,
				Mensagem: replyMessage(c),
				Link:     "/posts/" + postID,
			})
		}
	}
	metrics.CommentsCreated.WithLabelValues(kind).Inc()

	s.invalidate(ctx, postID)
	return c, nil
}

func replyMessage(c models.Comment) string {
	if c.AutorApelido == "" || c.AutorID == nil {
		return "Alguém respondeu ao seu comentário"
	}
	return fmt.Sprintf("%s respondeu ao seu comentário", c.AutorApelido)
}

func (s *commentService) Delete(ctx context.Context, userID, commentID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	postID, err := s.comments.SoftDelete(ctx, commentID, userID)
	if err != nil {
		return storeErr(err, "Comentário")
	}
	s.invalidate(ctx, postID)
	return nil
}

// invalidate drops cached copies that carry the post's comment counter.
func (s *commentService) invalidate(ctx context.Context, postID string) {
	s.cache.DelPattern(ctx, "posts:feed:*")
	s.cache.DelPattern(ctx, fmt.Sprintf("posts:item:%s:*", postID))
}
