package repository

import (
	"context"
	"database/sql"

	"desabafa/pkg/models"
)

const NotificationLimit = 50

type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	List(ctx context.Context, userID string, onlyUnread bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID string, id int64) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notificacoes (user_id, tipo, mensagem, link)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lida, created_at
	`, n.UserID, n.Tipo, n.Mensagem, n.Link).Scan(&n.ID, &n.Lida, &n.CreatedAt)
	return n, err
}

func (r *notificationRepository) List(ctx context.Context, userID string, onlyUnread bool) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, tipo, mensagem, link, lida, created_at
		FROM notificacoes
		WHERE user_id = $1 AND (NOT $2 OR lida = false)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, userID, onlyUnread, NotificationLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Tipo, &n.Mensagem, &n.Link, &n.Lida, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notificacoes SET lida = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notificacoes SET lida = true WHERE user_id = $1 AND lida = false`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
