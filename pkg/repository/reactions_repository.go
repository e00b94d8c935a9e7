package repository

import (
	"context"
	"database/sql"
	"errors"

	"desabafa/pkg/database"
	"desabafa/pkg/models"
)

// ReactionRepository flips a user's like on a post or comment and keeps the
// denormalized counter in step, both inside one transaction.
type ReactionRepository interface {
	TogglePost(ctx context.Context, userID, postID string) (models.ReactionResult, error)
	ToggleComment(ctx context.Context, userID, commentID string) (models.ReactionResult, error)
}

type reactionRepository struct {
	db *sql.DB
}

func NewReactionRepository(db *sql.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

type toggleQueries struct {
	remove string
	insert string
	bump   string
}

var postToggle = toggleQueries{
	remove: `DELETE FROM post_reacoes WHERE user_id = $1 AND post_id = $2 RETURNING 1`,
	insert: `INSERT INTO post_reacoes (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING RETURNING 1`,
	bump:   `UPDATE posts SET total_reacoes = GREATEST(total_reacoes + $2, 0) WHERE id = $1 RETURNING total_reacoes`,
}

var commentToggle = toggleQueries{
	remove: `DELETE FROM comentario_reacoes WHERE user_id = $1 AND comentario_id = $2 RETURNING 1`,
	insert: `INSERT INTO comentario_reacoes (user_id, comentario_id) VALUES ($1, $2) ON CONFLICT DO NOTHING RETURNING 1`,
	bump:   `UPDATE comentarios SET total_reacoes = GREATEST(total_reacoes + $2, 0) WHERE id = $1 RETURNING total_reacoes`,
}

func (r *reactionRepository) TogglePost(ctx context.Context, userID, postID string) (models.ReactionResult, error) {
	return r.toggle(ctx, postToggle, userID, postID)
}

func (r *reactionRepository) ToggleComment(ctx context.Context, userID, commentID string) (models.ReactionResult, error) {
	return r.toggle(ctx, commentToggle, userID, commentID)
}

func (r *reactionRepository) toggle(ctx context.Context, q toggleQueries, userID, targetID string) (models.ReactionResult, error) {
	var res models.ReactionResult
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		delta := -1
		var one int
		err := tx.QueryRowContext(ctx, q.remove, userID, targetID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			delta = 1
			err = tx.QueryRowContext(ctx, q.insert, userID, targetID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				// a concurrent insert won; the like is already there
				delta = 0
				err = nil
			}
		}
		if err != nil {
			return err
		}
		res.Liked = delta >= 0
		return tx.QueryRowContext(ctx, q.bump, targetID, delta).Scan(&res.Total)
	})
	return res, err
}
