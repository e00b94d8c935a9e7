package services

import (
	"context"

	"desabafa/pkg/logger"
	"desabafa/pkg/models"
	"desabafa/pkg/repository"

	"go.uber.org/zap"
)

type NotificationService interface {
	// Notify stores n for the recipient to pull later. Failures are logged,
	// never returned: a notification must not fail the write that caused it.
	Notify(ctx context.Context, n models.Notification)
	List(ctx context.Context, userID string, onlyUnread bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID string, id int64) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	log  *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo, log: logger.Named("notificacoes")}
}

func (s *notificationService) Notify(ctx context.Context, n models.Notification) {
	if _, err := s.repo.Create(ctx, n); err != nil {
		s.log.Warn("notificação não gravada", zap.String("user_id", n.UserID), zap.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, userID string, onlyUnread bool) ([]models.Notification, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, userID, onlyUnread)
	if err != nil {
		return nil, storeErr(err, "Aviso")
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return storeErr(s.repo.MarkRead(ctx, userID, id), "Aviso")
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storeErr(err, "Aviso")
	}
	return n, nil
}
