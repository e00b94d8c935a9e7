package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/logger"
	"desabafa/pkg/models"
	"desabafa/pkg/repository"

	"go.uber.org/zap"
)

type ProfileService interface {
	// Me returns the caller's profile with today's limits, creating the
	// default profile on first access.
	Me(ctx context.Context, userID string) (models.Profile, error)
	Ensure(ctx context.Context, userID string) (models.Profile, error)
	Update(ctx context.Context, userID string, upd models.ProfileUpdate) (models.Profile, error)
	Upgrade(ctx context.Context, userID string) (models.Profile, error)
	Public(ctx context.Context, apelido string) (models.PublicProfile, error)
}

type profileService struct {
	repo   repository.ProfileRepository
	quota  QuotaService
	cache  Cache
	events Publisher
	now    func() time.Time
	log    *zap.Logger
}

func NewProfileService(repo repository.ProfileRepository, quota QuotaService, cache Cache, events Publisher) ProfileService {
	if cache == nil {
		cache = nopCache{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &profileService{
		repo:   repo,
		quota:  quota,
		cache:  cache,
		events: events,
		now:    time.Now,
		log:    logger.Named("perfil"),
	}
}

func (s *profileService) Me(ctx context.Context, userID string) (models.Profile, error) {
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	p.Limites = s.quota.Usage(ctx, userID, p.Plano)
	return p, nil
}

func (s *profileService) Ensure(ctx context.Context, userID string) (models.Profile, error) {
	if err := requireUser(userID); err != nil {
		return models.Profile{}, err
	}

	p, err := s.repo.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, storeErr(err, "Perfil")
	}

	// the short handle can collide; retry once with more of the id
	handle := models.DefaultHandle(userID)
	for attempt := 0; attempt < 2; attempt++ {
		p, err = s.repo.Create(ctx, models.Profile{
			ID:        userID,
			Apelido:   handle,
			Plano:     models.PlanFree,
			AvatarURL: models.AvatarPlaceholder(handle),
		})
		if !errors.Is(err, repository.ErrHandleTaken) {
			break
		}
		handle = longHandle(userID)
	}
	if err != nil {
		return models.Profile{}, storeErr(err, "Perfil")
	}

	s.log.Info("perfil criado", zap.String("user_id", userID), zap.String("apelido", p.Apelido))
	return p, nil
}

func longHandle(userID string) string {
	id := strings.ReplaceAll(userID, "-", "")
	if len(id) > 12 {
		id = id[:12]
	}
	return "anonimo_" + id
}

func (s *profileService) Update(ctx context.Context, userID string, upd models.ProfileUpdate) (models.Profile, error) {
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	now := s.now()
	handleChanged := false
	if upd.Apelido != nil {
		handle := strings.TrimSpace(*upd.Apelido)
		if ok, reason := models.ValidHandle(handle); !ok {
			return models.Profile{}, apperr.Validation("apelido", reason)
		}
		if handle != p.Apelido {
			if p.Plano != models.PlanPremium && now.Before(p.ProximaTrocaApelido) {
				return models.Profile{}, apperr.HandleCooldown(fmt.Sprintf(
					"Você poderá trocar de apelido novamente em %s", p.ProximaTrocaApelido.Format("02/01/2006")))
			}
			p.Apelido = handle
			p.AvatarURL = models.AvatarPlaceholder(handle)
			p.ProximaTrocaApelido = now
			if p.Plano != models.PlanPremium {
				p.ProximaTrocaApelido = now.Add(models.HandleChangeCooldown)
			}
			handleChanged = true
		}
	}
	if upd.MostrarApelido != nil {
		p.MostrarApelido = *upd.MostrarApelido
	}

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return models.Profile{}, storeErr(err, "Perfil")
	}

	if handleChanged {
		s.cache.DelPattern(ctx, "posts:*")
	}
	s.notifyUpdated(ctx, userID)

	updated.Limites = s.quota.Usage(ctx, userID, updated.Plano)
	return updated, nil
}

// Upgrade switches the profile to premium. There is no payment step.
func (s *profileService) Upgrade(ctx context.Context, userID string) (models.Profile, error) {
	if _, err := s.Ensure(ctx, userID); err != nil {
		return models.Profile{}, err
	}
	p, err := s.repo.SetPlan(ctx, userID, models.PlanPremium)
	if err != nil {
		return models.Profile{}, storeErr(err, "Perfil")
	}
	s.log.Info("plano premium ativado", zap.String("user_id", userID))
	s.notifyUpdated(ctx, userID)

	p.Limites = s.quota.Usage(ctx, userID, p.Plano)
	return p, nil
}

func (s *profileService) Public(ctx context.Context, apelido string) (models.PublicProfile, error) {
	p, err := s.repo.GetByHandle(ctx, strings.TrimSpace(apelido))
	if err != nil {
		return models.PublicProfile{}, storeErr(err, "Perfil")
	}
	return p.Public(), nil
}

func (s *profileService) notifyUpdated(ctx context.Context, userID string) {
	ev := models.SessionEvent{Event: models.EventUserUpdated, UserID: userID}
	if err := s.events.Emit(ctx, ActionSession, userID, ev); err != nil {
		s.log.Debug("evento USER_UPDATED não publicado", zap.Error(err))
	}
}
