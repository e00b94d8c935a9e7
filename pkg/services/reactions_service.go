package services

import (
	"context"
	"fmt"
	"strconv"

	"desabafa/pkg/apperr"
	"desabafa/pkg/metrics"
	"desabafa/pkg/models"
	"desabafa/pkg/repository"
)

// Reaction targets as they appear in routes and metrics.
const (
	TargetPost    = "post"
	TargetComment = "comentario"
)

type ReactionService interface {
	TogglePost(ctx context.Context, userID, postID string) (models.ReactionResult, error)
	ToggleComment(ctx context.Context, userID, commentID string) (models.ReactionResult, error)
}

type reactionService struct {
	reactions repository.ReactionRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	notes     NotificationService
	cache     Cache
}

func NewReactionService(
	reactions repository.ReactionRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	notes NotificationService,
	cache Cache,
) ReactionService {
	if cache == nil {
		cache = nopCache{}
	}
	return &reactionService{reactions: reactions, posts: posts, comments: comments, notes: notes, cache: cache}
}

func (s *reactionService) TogglePost(ctx context.Context, userID, postID string) (models.ReactionResult, error) {
	if err := requireUser(userID); err != nil {
		return models.ReactionResult{}, err
	}
	author, err := s.posts.AuthorOf(ctx, postID)
	if err != nil {
		return models.ReactionResult{}, storeErr(err, "Post")
	}
	if author != nil && *author == userID {
		return models.ReactionResult{}, apperr.SelfReaction()
	}

	res, err := s.reactions.TogglePost(ctx, userID, postID)
	if err != nil {
		return models.ReactionResult{}, storeErr(err, "Post")
	}
	s.after(ctx, TargetPost, author, res, "/posts/"+postID, "seu post")

	s.cache.DelPattern(ctx, "posts:feed:*")
	s.cache.DelPattern(ctx, fmt.Sprintf("posts:item:%s:*", postID))
	return res, nil
}

func (s *reactionService) ToggleComment(ctx context.Context, userID, commentID string) (models.ReactionResult, error) {
	if err := requireUser(userID); err != nil {
		return models.ReactionResult{}, err
	}
	c, err := s.comments.Get(ctx, commentID, "")
	if err != nil {
		return models.ReactionResult{}, storeErr(err, "Comentário")
	}
	if c.AutorID != nil && *c.AutorID == userID {
		return models.ReactionResult{}, apperr.SelfReaction()
	}

	res, err := s.reactions.ToggleComment(ctx, userID, commentID)
	if err != nil {
		return models.ReactionResult{}, storeErr(err, "Comentário")
	}
	s.after(ctx, TargetComment, c.AutorID, res, "/posts/"+c.PostID, "seu comentário")
	return res, nil
}

// after records the toggle and tells the author about new likes.
func (s *reactionService) after(ctx context.Context, target string, author *string, res models.ReactionResult, link, what string) {
	metrics.ReactionsToggled.WithLabelValues(target, strconv.FormatBool(res.Liked)).Inc()
	if !res.Liked || author == nil {
		return
	}
	s.notes.Notify(ctx, models.Notification{
		UserID:   *author,
		Tipo:     models.NotifyReaction,
		Mensagem: "Alguém curtiu " + what,
		Link:     link,
	})
}
