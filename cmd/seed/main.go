// Command seed fills a development database with fake users, posts,
// comments and reactions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"desabafa/pkg/config"
	"desabafa/pkg/database"
	"desabafa/pkg/logger"
	"desabafa/pkg/models"
	"desabafa/pkg/repository"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	nUsers    int
	nPosts    int
	nComments int
	nLikes    int
	seedValue int64
)

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Popular o banco de desenvolvimento",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Initialize(cfg.LogLevel, ""); err != nil {
			return err
		}
		defer logger.Sync()

		ctx := cmd.Context()
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}

		if seedValue == 0 {
			seedValue = time.Now().UnixNano()
		}
		_ = gofakeit.Seed(seedValue)

		s := &seeder{
			users:     repository.NewAuthRepository(db),
			profiles:  repository.NewProfileRepository(db),
			posts:     repository.NewPostRepository(db),
			comments:  repository.NewCommentRepository(db),
			reactions: repository.NewReactionRepository(db),
			log:       logger.Named("seed"),
		}
		return s.run(ctx)
	},
}

func init() {
	rootCmd.Flags().IntVar(&nUsers, "usuarios", 20, "quantidade de usuários")
	rootCmd.Flags().IntVar(&nPosts, "posts", 60, "quantidade de posts")
	rootCmd.Flags().IntVar(&nComments, "comentarios", 200, "quantidade de comentários")
	rootCmd.Flags().IntVar(&nLikes, "curtidas", 400, "quantidade de curtidas")
	rootCmd.Flags().Int64Var(&seedValue, "seed", 0, "semente do gerador (0 = aleatória)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

type seeder struct {
	users     repository.AuthRepository
	profiles  repository.ProfileRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	log       *zap.Logger
}

var categories = []string{
	string(models.CategoryDesabafo),
	string(models.CategoryConfissao),
	string(models.CategoryFofoca),
}

func (s *seeder) run(ctx context.Context) error {
	s.log.Info("criando usuários", zap.Int("n", nUsers))
	userIDs, err := s.seedUsers(ctx, nUsers)
	if err != nil {
		return fmt.Errorf("usuários: %w", err)
	}
	if len(userIDs) == 0 || nPosts <= 0 {
		return nil
	}

	s.log.Info("criando posts", zap.Int("n", nPosts))
	posts, err := s.seedPosts(ctx, userIDs, nPosts)
	if err != nil {
		return fmt.Errorf("posts: %w", err)
	}

	s.log.Info("criando comentários", zap.Int("n", nComments))
	comments, err := s.seedComments(ctx, userIDs, posts, nComments)
	if err != nil {
		return fmt.Errorf("comentários: %w", err)
	}

	s.log.Info("criando curtidas", zap.Int("n", nLikes))
	if err := s.seedLikes(ctx, userIDs, posts, comments, nLikes); err != nil {
		return fmt.Errorf("curtidas: %w", err)
	}

	n, err := s.posts.RefreshTrending(ctx, 24*time.Hour, 10)
	if err != nil {
		return fmt.Errorf("em alta: %w", err)
	}
	s.log.Info("seed concluído", zap.Int64("em_alta", n))
	return nil
}

func (s *seeder) seedUsers(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		u, _, err := s.users.UpsertGoogleUser(ctx, "seed-"+gofakeit.UUID(), gofakeit.Email())
		if err != nil {
			return nil, err
		}

		handle := fakeHandle()
		plan := models.PlanFree
		if gofakeit.Number(1, 5) == 1 {
			plan = models.PlanPremium
		}
		_, err = s.profiles.Create(ctx, models.Profile{
			ID:             u.ID,
			Apelido:        handle,
			Plano:          plan,
			AvatarURL:      models.AvatarPlaceholder(handle),
			MostrarApelido: gofakeit.Bool(),
		})
		if err != nil {
			if errors.Is(err, repository.ErrHandleTaken) {
				i--
				continue
			}
			return nil, err
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// fakeHandle keeps only the characters a handle accepts.
func fakeHandle() string {
	h := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, gofakeit.Username())
	if len(h) < models.HandleMinLen {
		h += "_" + gofakeit.Word()
	}
	if len(h) > models.HandleMaxLen {
		h = h[:models.HandleMaxLen]
	}
	return h
}

func (s *seeder) seedPosts(ctx context.Context, users []string, n int) ([]models.Post, error) {
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		var autor *string
		anon := gofakeit.Bool()
		if !anon {
			id := users[gofakeit.Number(0, len(users)-1)]
			autor = &id
		}
		p, err := s.posts.Create(ctx, autor, models.Category(gofakeit.RandomString(categories)),
			gofakeit.HipsterSentence()+" "+gofakeit.HipsterSentence(), anon)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *seeder) seedComments(ctx context.Context, users []string, posts []models.Post, n int) ([]models.Comment, error) {
	var roots, all []models.Comment
	for i := 0; i < n; i++ {
		var autor *string
		if gofakeit.Number(1, 3) > 1 {
			id := users[gofakeit.Number(0, len(users)-1)]
			autor = &id
		}

		postID := posts[gofakeit.Number(0, len(posts)-1)].ID
		var parentID *string
		if len(roots) > 0 && gofakeit.Number(1, 3) == 1 {
			parent := roots[gofakeit.Number(0, len(roots)-1)]
			postID, parentID = parent.PostID, &parent.ID
		}

		c, err := s.comments.Create(ctx, postID, autor, parentID, gofakeit.HipsterSentence())
		if err != nil {
			return nil, err
		}
		if c.IsRoot() {
			roots = append(roots, c)
		}
		all = append(all, c)
	}
	return all, nil
}

func (s *seeder) seedLikes(ctx context.Context, users []string, posts []models.Post, comments []models.Comment, n int) error {
	for i := 0; i < n; i++ {
		user := users[gofakeit.Number(0, len(users)-1)]
		var err error
		if len(comments) == 0 || gofakeit.Bool() {
			p := posts[gofakeit.Number(0, len(posts)-1)]
			if own(p.AutorID, user) {
				continue
			}
			_, err = s.reactions.TogglePost(ctx, user, p.ID)
		} else {
			c := comments[gofakeit.Number(0, len(comments)-1)]
			if own(c.AutorID, user) {
				continue
			}
			_, err = s.reactions.ToggleComment(ctx, user, c.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func own(autorID *string, user string) bool {
	return autorID != nil && *autorID == user
}
