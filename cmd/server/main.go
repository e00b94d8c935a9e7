package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"desabafa/pkg/broker"
	"desabafa/pkg/cache"
	"desabafa/pkg/config"
	"desabafa/pkg/database"
	"desabafa/pkg/handlers"
	"desabafa/pkg/hub"
	"desabafa/pkg/logger"
	"desabafa/pkg/metrics"
	"desabafa/pkg/middleware"
	"desabafa/pkg/repository"
	"desabafa/pkg/server"
	"desabafa/pkg/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("desabafa")

	if cfg.InsecureSecret() {
		log.Warn("JWT_SECRET não definido, usando segredo de desenvolvimento")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("banco indisponível", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal("migrations falharam", zap.Error(err))
		}
	}

	log.Info("conectando ao Redis")
	redis, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis indisponível", zap.Error(err))
	}
	defer redis.Close()

	wsHub := hub.New()
	bus := broker.New(redis.Client(), "desabafa")
	bus.OnAny(wsHub.Deliver)
	go bus.Run(ctx)

	authRepo := repository.NewAuthRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	quota := services.NewQuotaService(redis)
	notes := services.NewNotificationService(repository.NewNotificationRepository(db))
	profiles := services.NewProfileService(repository.NewProfileRepository(db), quota, redis, bus)
	social := services.NewSocialService(postRepo, profiles, quota, redis)
	comments := services.NewCommentService(commentRepo, postRepo, profiles, quota, notes, redis)
	reactions := services.NewReactionService(repository.NewReactionRepository(db), postRepo, commentRepo, notes, redis)
	idp := services.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
	auth := services.NewAuthService(authRepo, profiles, idp, redis, bus, services.AuthConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})

	go social.RunTrending(ctx, cfg.TrendingEvery)
	go auth.RunSessionCleanup(ctx, cfg.SessionSweepEvery)

	wsHub.On(hub.ActionSessionGet, wsHub.AnswerSession)

	app := server.NewApp("desabafa", cfg.CORSOrigins)
	guards := handlers.Guards{
		Auth:     middleware.AuthMiddleware(cfg.JWTSecret),
		Optional: middleware.OptionalAuth(cfg.JWTSecret),
		Write:    middleware.WriteLimiter(20, time.Minute),
	}

	handlers.NewAuth(auth, cfg.FrontendURL, cfg.RefreshTTL).Register(app, guards)
	handlers.NewPosts(social, comments, reactions).Register(app, guards)
	handlers.NewPerfil(profiles).Register(app, guards)
	handlers.NewNotificacoes(notes).Register(app, guards)

	app.Get("/metrics", metrics.Handler())
	app.Get("/hub/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"clients":       wsHub.ClientCount(),
			"authenticated": wsHub.AuthenticatedCount(),
		})
	})

	app.Use("/ws", parseWSToken(cfg.JWTSecret))
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		wsHub.Serve(c, userID)
	}))

	go func() {
		<-ctx.Done()
		log.Info("encerrando")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	addr := "0.0.0.0:" + cfg.Port
	log.Info("servidor iniciando", zap.String("addr", addr), zap.String("ws", "/ws"))
	if err := app.Listen(addr); err != nil {
		log.Error("falha ao iniciar", zap.Error(err))
		os.Exit(1)
	}
}

// parseWSToken resolves the socket's user from ?token= or the bearer header.
// A missing or invalid token yields an anonymous connection.
func parseWSToken(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		tokenStr := c.Query("token")
		if tokenStr == "" {
			if h := c.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenStr = h[7:]
			}
		}

		userID := ""
		if tokenStr != "" {
			if id, err := services.ParseAccessToken(secret, tokenStr); err == nil {
				userID = id
			}
		}
		c.Locals("user_id", userID)
		return c.Next()
	}
}
