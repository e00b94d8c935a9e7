package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"desabafa/pkg/database"
	"desabafa/pkg/models"
)

type CommentRepository interface {
	Page(ctx context.Context, postID, viewerID string, offset, limit int, order models.CommentOrder) ([]models.Comment, int, error)
	Get(ctx context.Context, id, viewerID string) (models.Comment, error)
	Create(ctx context.Context, postID string, autorID, parentID *string, conteudo string) (models.Comment, error)
	// SoftDelete hides the comment and returns its post id.
	SoftDelete(ctx context.Context, id, autorID string) (string, error)
	AuthorOf(ctx context.Context, id string) (*string, error)
}

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

const commentSelect = `
	SELECT c.id, c.post_id, c.autor_id, COALESCE(pr.apelido, ''), c.parent_id, c.conteudo,
	       c.created_at, c.total_reacoes,
	       EXISTS(SELECT 1 FROM comentario_reacoes r WHERE r.comentario_id = c.id AND r.user_id = $1::uuid) AS ja_curtiu
	FROM comentarios c
	LEFT JOIN profiles pr ON pr.id = c.autor_id`

func scanComment(row scanner) (models.Comment, error) {
	var c models.Comment
	var autor, parent sql.NullString
	err := row.Scan(&c.ID, &c.PostID, &autor, &c.AutorApelido, &parent, &c.Conteudo,
		&c.CreatedAt, &c.TotalReacoes, &c.JaCurtiu)
	if autor.Valid {
		c.AutorID = &autor.String
	}
	if parent.Valid {
		c.ParentID = &parent.String
	}
	return c, err
}

func (r *commentRepository) Page(ctx context.Context, postID, viewerID string, offset, limit int, order models.CommentOrder) ([]models.Comment, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comentarios WHERE post_id = $1 AND deleted = false`, postID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if order == models.OrderDesc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`%s
		WHERE c.post_id = $2 AND c.deleted = false
		ORDER BY c.created_at %s, c.id %s
		LIMIT $3 OFFSET $4`, commentSelect, dir, dir)

	rows, err := r.db.QueryContext(ctx, query, viewerArg(viewerID), postID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

func (r *commentRepository) Get(ctx context.Context, id, viewerID string) (models.Comment, error) {
	return scanComment(r.db.QueryRowContext(ctx,
		commentSelect+` WHERE c.id = $2 AND c.deleted = false`, viewerArg(viewerID), id))
}

func (r *commentRepository) Create(ctx context.Context, postID string, autorID, parentID *string, conteudo string) (models.Comment, error) {
	var id string
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO comentarios (post_id, autor_id, parent_id, conteudo)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, postID, nullable(autorID), nullable(parentID), conteudo).Scan(&id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE posts SET total_comentarios = total_comentarios + 1 WHERE id = $1`, postID)
		return err
	})
	if err != nil {
		return models.Comment{}, err
	}
	return r.Get(ctx, id, "")
}

func (r *commentRepository) SoftDelete(ctx context.Context, id, autorID string) (string, error) {
	var postID string
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE comentarios SET deleted = true
			WHERE id = $1 AND autor_id = $2 AND deleted = false
			RETURNING post_id
		`, id, autorID).Scan(&postID)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM comentarios WHERE id = $1 AND deleted = false)`, id,
			).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return ErrNotOwner
			}
			return sql.ErrNoRows
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET total_comentarios = GREATEST(total_comentarios - 1, 0) WHERE id = $1`, postID)
		return err
	})
	return postID, err
}

func (r *commentRepository) AuthorOf(ctx context.Context, id string) (*string, error) {
	var autor sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT autor_id FROM comentarios WHERE id = $1 AND deleted = false`, id,
	).Scan(&autor)
	if err != nil || !autor.Valid {
		return nil, err
	}
	return &autor.String, nil
}
