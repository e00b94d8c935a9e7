package services

import (
	"context"
	"fmt"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/logger"
	"desabafa/pkg/metrics"
	"desabafa/pkg/models"
	"desabafa/pkg/repository"

	"go.uber.org/zap"
)

const (
	feedTTL        = 15 * time.Second
	postTTL        = 30 * time.Second
	trendingWindow = 24 * time.Hour
	trendingTop    = 10
)

// SocialService serves the feed and owns post writes.
type SocialService interface {
	Feed(ctx context.Context, f models.FeedFilter, viewerID string) ([]models.Post, error)
	Post(ctx context.Context, id, viewerID string) (models.Post, error)
	Create(ctx context.Context, userID string, np models.NewPost) (models.Post, error)
	Remove(ctx context.Context, userID, postID string) error
	// RunTrending refreshes the em_alta flags every interval until ctx ends.
	RunTrending(ctx context.Context, interval time.Duration)
}

type socialService struct {
	posts    repository.PostRepository
	profiles ProfileService
	quota    QuotaService
	cache    Cache
	log      *zap.Logger
}

func NewSocialService(posts repository.PostRepository, profiles ProfileService, quota QuotaService, cache Cache) SocialService {
	if cache == nil {
		cache = nopCache{}
	}
	return &socialService{
		posts:    posts,
		profiles: profiles,
		quota:    quota,
		cache:    cache,
		log:      logger.Named("social"),
	}
}

func feedKey(f models.FeedFilter, viewerID string) string {
	return fmt.Sprintf("posts:feed:%s:%s:%t:%d:v%s", f.Tipo, f.Ordem, f.Last24, f.Limit, viewerID)
}

func postKey(id, viewerID string) string {
	return fmt.Sprintf("posts:item:%s:v%s", id, viewerID)
}

func (s *socialService) Feed(ctx context.Context, f models.FeedFilter, viewerID string) ([]models.Post, error) {
	if f.Tipo != "" && !f.Tipo.Valid() {
		return nil, apperr.Validation("tipo", "Categoria inválida")
	}
	if f.Ordem != models.FeedTrending {
		f.Ordem = models.FeedRecent
	}
	if f.Limit <= 0 || f.Limit > repository.FeedLimit {
		f.Limit = repository.FeedLimit
	}

	key := feedKey(f, viewerID)
	var cached []models.Post
	if s.cache.Get(ctx, key, &cached) {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	posts, err := s.posts.Feed(ctx, f, viewerID)
	if err != nil {
		return nil, storeErr(err, "Post")
	}
	for i := range posts {
		mask(&posts[i])
	}

	s.cache.Set(ctx, key, posts, feedTTL)
	return posts, nil
}

func (s *socialService) Post(ctx context.Context, id, viewerID string) (models.Post, error) {
	key := postKey(id, viewerID)
	var cached models.Post
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	p, err := s.posts.Get(ctx, id, viewerID)
	if err != nil {
		return models.Post{}, storeErr(err, "Post")
	}
	mask(&p)

	s.cache.Set(ctx, key, p, postTTL)
	return p, nil
}

func (s *socialService) Create(ctx context.Context, userID string, np models.NewPost) (models.Post, error) {
	if err := requireUser(userID); err != nil {
		return models.Post{}, err
	}
	np.Normalize()
	if err := np.Validate(); err != nil {
		return models.Post{}, err
	}

	profile, err := s.profiles.Ensure(ctx, userID)
	if err != nil {
		return models.Post{}, err
	}
	if err := s.quota.Reserve(ctx, userID, profile.Plano, models.QuotaPost); err != nil {
		return models.Post{}, err
	}

	anonimo := models.Anonymous(np.Anonimo, profile.MostrarApelido)
	var autor *string
	if !anonimo {
		autor = &userID
	}

	p, err := s.posts.Create(ctx, autor, np.Tipo, np.Conteudo, anonimo)
	if err != nil {
		s.quota.Release(ctx, userID, models.QuotaPost)
		return models.Post{}, storeErr(err, "Post")
	}
	mask(&p)

	metrics.PostsCreated.WithLabelValues(string(p.Tipo)).Inc()
	s.cache.DelPattern(ctx, "posts:feed:*")
	s.log.Info("post criado", zap.String("id", p.ID), zap.String("tipo", string(p.Tipo)), zap.Bool("anonimo", anonimo))
	return p, nil
}

func (s *socialService) Remove(ctx context.Context, userID, postID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.posts.Remove(ctx, postID, userID); err != nil {
		return storeErr(err, "Post")
	}
	s.cache.DelPattern(ctx, "posts:*")
	return nil
}

func (s *socialService) RunTrending(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.refreshTrending(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshTrending(ctx)
		}
	}
}

func (s *socialService) refreshTrending(ctx context.Context) {
	n, err := s.posts.RefreshTrending(ctx, trendingWindow, trendingTop)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("atualização de em alta falhou", zap.Error(err))
		}
		return
	}
	if n > 0 {
		s.cache.DelPattern(ctx, "posts:feed:*")
	}
	s.log.Debug("em alta atualizado", zap.Int64("linhas", n))
}

// mask hides the handle of anonymous posts.
func mask(p *models.Post) {
	if p.Anonimo {
		p.AutorID = nil
		p.AutorApelido = ""
	}
}
