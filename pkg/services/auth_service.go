package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/logger"
	"desabafa/pkg/models"
	"desabafa/pkg/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const oauthStateTTL = 10 * time.Minute

type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthService interface {
	// LoginURL starts the OAuth flow and remembers its state value.
	LoginURL(ctx context.Context) (string, error)
	Callback(ctx context.Context, state, code, userAgent, ip string) (models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (models.AuthResponse, error)
	// Session answers with the current user for a valid access token, or
	// rotates the refresh token when the access token is missing or stale.
	Session(ctx context.Context, accessToken, refreshToken string) (models.AuthResponse, error)
	Logout(ctx context.Context, refreshToken, userID string) error
	LogoutAll(ctx context.Context, userID string) error
	Sessions(ctx context.Context, userID string) ([]models.Session, error)
	RunSessionCleanup(ctx context.Context, interval time.Duration)
}

type authService struct {
	repo     repository.AuthRepository
	profiles ProfileService
	idp      IdentityProvider
	states   StateStore
	events   Publisher
	cfg      AuthConfig
	now      func() time.Time
	log      *zap.Logger
}

func NewAuthService(
	repo repository.AuthRepository,
	profiles ProfileService,
	idp IdentityProvider,
	states StateStore,
	events Publisher,
	cfg AuthConfig,
) AuthService {
	if events == nil {
		events = nopPublisher{}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &authService{
		repo:     repo,
		profiles: profiles,
		idp:      idp,
		states:   states,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.Named("auth"),
	}
}

func (s *authService) LoginURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.states.PutState(ctx, state, oauthStateTTL); err != nil {
		return "", apperr.Unavailable("Login indisponível no momento").Wrap(err)
	}
	return s.idp.AuthCodeURL(state), nil
}

func (s *authService) Callback(ctx context.Context, state, code, userAgent, ip string) (models.AuthResponse, error) {
	if state == "" || code == "" {
		return models.AuthResponse{}, apperr.Validation("code", "Parâmetros de login ausentes")
	}
	ok, err := s.states.TakeState(ctx, state)
	if err != nil {
		return models.AuthResponse{}, apperr.Unavailable("Login indisponível no momento").Wrap(err)
	}
	if !ok {
		return models.AuthResponse{}, apperr.Unauthorized("Login expirado, tente novamente")
	}

	id, err := s.idp.Exchange(ctx, code)
	if err != nil {
		s.log.Warn("oauth exchange falhou", zap.Error(err))
		return models.AuthResponse{}, apperr.Unauthorized("Não foi possível entrar com o Google")
	}

	user, created, err := s.repo.UpsertGoogleUser(ctx, id.Subject, id.Email)
	if err != nil {
		return models.AuthResponse{}, storeErr(err, "Usuário")
	}
	if created {
		s.log.Info("novo usuário", zap.String("user_id", user.ID))
	}

	resp, err := s.createSession(ctx, user, userAgent, ip)
	if err != nil {
		return models.AuthResponse{}, err
	}
	s.publish(ctx, models.EventSignedIn, user.ID)
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (models.AuthResponse, error) {
	if refreshToken == "" {
		return models.AuthResponse{}, apperr.Unauthorized("Refresh token não informado")
	}

	session, err := s.repo.GetSessionByHash(ctx, hashToken(s.cfg.Secret, refreshToken))
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuthResponse{}, apperr.Unauthorized("Sessão inválida ou expirada")
	}
	if err != nil {
		return models.AuthResponse{}, storeErr(err, "Sessão")
	}

	if s.now().After(session.ExpiresAt) {
		s.repo.DeleteSessionByHash(ctx, session.TokenHash)
		return models.AuthResponse{}, apperr.Unauthorized("Sessão expirada, faça login novamente")
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return models.AuthResponse{}, storeErr(err, "Usuário")
	}

	next := generateRefreshToken()
	if err := s.repo.RotateSession(ctx, session.ID, hashToken(s.cfg.Secret, next), s.now().Add(s.cfg.RefreshTTL)); err != nil {
		return models.AuthResponse{}, storeErr(err, "Sessão")
	}

	resp, err := s.respond(ctx, user, next)
	if err != nil {
		return models.AuthResponse{}, err
	}
	s.publish(ctx, models.EventTokenRefreshed, user.ID)
	return resp, nil
}

func (s *authService) Session(ctx context.Context, accessToken, refreshToken string) (models.AuthResponse, error) {
	if accessToken != "" {
		if userID, err := ParseAccessToken(s.cfg.Secret, accessToken); err == nil {
			user, err := s.repo.GetUserByID(ctx, userID)
			if err != nil {
				return models.AuthResponse{}, storeErr(err, "Usuário")
			}
			profile, err := s.profiles.Me(ctx, userID)
			if err != nil {
				return models.AuthResponse{}, err
			}
			return models.AuthResponse{User: user, Profile: profile}, nil
		}
	}
	if refreshToken == "" {
		return models.AuthResponse{}, apperr.Unauthorized("Nenhuma sessão ativa")
	}
	return s.Refresh(ctx, refreshToken)
}

func (s *authService) Logout(ctx context.Context, refreshToken, userID string) error {
	if refreshToken != "" {
		owner, err := s.repo.DeleteSessionByHash(ctx, hashToken(s.cfg.Secret, refreshToken))
		if err == nil && userID == "" {
			userID = owner
		}
	}
	if userID != "" {
		s.publish(ctx, models.EventSignedOut, userID)
	}
	return nil
}

func (s *authService) LogoutAll(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteAllSessionsByUserID(ctx, userID); err != nil {
		return storeErr(err, "Sessão")
	}
	s.publish(ctx, models.EventSignedOut, userID)
	return nil
}

func (s *authService) Sessions(ctx context.Context, userID string) ([]models.Session, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	list, err := s.repo.GetActiveSessionsByUserID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "Sessão")
	}
	return list, nil
}

func (s *authService) RunSessionCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.repo.DeleteExpiredSessions(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn("limpeza de sessões falhou", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				s.log.Info("sessões expiradas removidas", zap.Int64("total", n))
			}
		}
	}
}

func (s *authService) createSession(ctx context.Context, user models.User, userAgent, ip string) (models.AuthResponse, error) {
	refresh := generateRefreshToken()
	expiresAt := s.now().Add(s.cfg.RefreshTTL)
	if err := s.repo.CreateSession(ctx, user.ID, hashToken(s.cfg.Secret, refresh), userAgent, ip, expiresAt); err != nil {
		return models.AuthResponse{}, apperr.Internal("Erro ao criar sessão").Wrap(err)
	}
	return s.respond(ctx, user, refresh)
}

func (s *authService) respond(ctx context.Context, user models.User, refresh string) (models.AuthResponse, error) {
	access, err := IssueAccessToken(s.cfg.Secret, user.ID, s.cfg.AccessTTL, s.now())
	if err != nil {
		return models.AuthResponse{}, apperr.Internal("").Wrap(err)
	}
	profile, err := s.profiles.Me(ctx, user.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.cfg.AccessTTL.Seconds()),
		User:         user,
		Profile:      profile,
	}, nil
}

func (s *authService) publish(ctx context.Context, event, userID string) {
	ev := models.SessionEvent{Event: event, UserID: userID}
	if event == models.EventSignedOut {
		ev.UserID = ""
	}
	if err := s.events.Emit(ctx, ActionSession, userID, ev); err != nil {
		s.log.Debug("evento de sessão não publicado", zap.String("event", event), zap.Error(err))
	}
}
