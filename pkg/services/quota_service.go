package services

import (
	"context"
	"fmt"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/logger"
	"desabafa/pkg/metrics"
	"desabafa/pkg/models"

	"go.uber.org/zap"
)

// QuotaService is the authoritative daily limit. Counters live in Redis
// under a per-day key, so a reservation is a single atomic INCR.
type QuotaService interface {
	Reserve(ctx context.Context, userID string, plan models.Plan, kind models.QuotaKind) error
	Release(ctx context.Context, userID string, kind models.QuotaKind)
	Usage(ctx context.Context, userID string, plan models.Plan) models.Limits
}

type quotaService struct {
	counters DailyCounter
	now      func() time.Time
	log      *zap.Logger
}

func NewQuotaService(counters DailyCounter) QuotaService {
	return &quotaService{counters: counters, now: time.Now, log: logger.Named("quota")}
}

func (s *quotaService) Reserve(ctx context.Context, userID string, plan models.Plan, kind models.QuotaKind) error {
	now := s.now()
	n, err := s.counters.IncrDaily(ctx, string(kind), userID, now)
	if err != nil {
		return apperr.Unavailable("Não foi possível verificar seu limite diário").Wrap(err)
	}

	ceiling := plan.Ceiling(kind)
	if models.Allows(ceiling, int(n)-1) {
		return nil
	}

	if err := s.counters.DecrDaily(ctx, string(kind), userID, now); err != nil {
		s.log.Warn("decr após limite falhou", zap.String("user_id", userID), zap.Error(err))
	}
	metrics.QuotaRejections.WithLabelValues(string(kind)).Inc()
	return apperr.QuotaExceeded(fmt.Sprintf("Limite diário de %s atingido (%d por dia no plano gratuito)", kindLabel(kind), ceiling))
}

func (s *quotaService) Release(ctx context.Context, userID string, kind models.QuotaKind) {
	if err := s.counters.DecrDaily(ctx, string(kind), userID, s.now()); err != nil {
		s.log.Warn("release falhou", zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
	}
}

// Usage reads today's counters. A Redis failure reports zero usage rather
// than failing the profile read.
func (s *quotaService) Usage(ctx context.Context, userID string, plan models.Plan) models.Limits {
	now := s.now()
	posts, err := s.counters.GetDaily(ctx, string(models.QuotaPost), userID, now)
	if err != nil {
		s.log.Debug("leitura de contador falhou", zap.Error(err))
	}
	comments, err := s.counters.GetDaily(ctx, string(models.QuotaComment), userID, now)
	if err != nil {
		s.log.Debug("leitura de contador falhou", zap.Error(err))
	}
	return models.LimitsFor(plan, int(posts), int(comments))
}
