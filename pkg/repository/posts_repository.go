package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"desabafa/pkg/models"
)

const FeedLimit = 50

type PostRepository interface {
	Feed(ctx context.Context, f models.FeedFilter, viewerID string) ([]models.Post, error)
	Get(ctx context.Context, id, viewerID string) (models.Post, error)
	Create(ctx context.Context, autorID *string, tipo models.Category, conteudo string, anonimo bool) (models.Post, error)
	Remove(ctx context.Context, id, autorID string) error
	// AuthorOf returns the author of an active post, nil when anonymous.
	AuthorOf(ctx context.Context, id string) (*string, error)
	RefreshTrending(ctx context.Context, window time.Duration, top int) (int64, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

// $1 is always the viewer (NULL when signed out).
const postSelect = `
	SELECT p.id, p.autor_id, COALESCE(pr.apelido, ''), p.tipo, p.conteudo, p.created_at,
	       p.total_comentarios, p.total_reacoes, p.em_alta, p.anonimo, p.status,
	       EXISTS(SELECT 1 FROM post_reacoes r WHERE r.post_id = p.id AND r.user_id = $1::uuid) AS ja_curtiu
	FROM posts p
	LEFT JOIN profiles pr ON pr.id = p.autor_id`

func scanPost(row scanner) (models.Post, error) {
	var p models.Post
	var autor sql.NullString
	err := row.Scan(&p.ID, &autor, &p.AutorApelido, &p.Tipo, &p.Conteudo, &p.CreatedAt,
		&p.TotalComentarios, &p.TotalReacoes, &p.EmAlta, &p.Anonimo, &p.Status, &p.JaCurtiu)
	if autor.Valid {
		p.AutorID = &autor.String
	}
	return p, err
}

func viewerArg(viewerID string) any {
	if viewerID == "" {
		return nil
	}
	return viewerID
}

func (r *postRepository) Feed(ctx context.Context, f models.FeedFilter, viewerID string) ([]models.Post, error) {
	args := []any{viewerArg(viewerID)}
	where := []string{"p.status = 'ativo'"}

	if f.Tipo != "" {
		args = append(args, f.Tipo)
		where = append(where, fmt.Sprintf("p.tipo = $%d", len(args)))
	}
	if f.Last24 {
		where = append(where, "p.created_at > NOW() - INTERVAL '24 hours'")
	}

	order := "p.created_at DESC"
	if f.Ordem == models.FeedTrending {
		order = "p.total_reacoes DESC, p.created_at DESC"
	}

	limit := f.Limit
	if limit <= 0 || limit > FeedLimit {
		limit = FeedLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT $%d",
		postSelect, strings.Join(where, " AND "), order, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *postRepository) Get(ctx context.Context, id, viewerID string) (models.Post, error) {
	return scanPost(r.db.QueryRowContext(ctx,
		postSelect+` WHERE p.id = $2 AND p.status = 'ativo'`, viewerArg(viewerID), id))
}

func (r *postRepository) Create(ctx context.Context, autorID *string, tipo models.Category, conteudo string, anonimo bool) (models.Post, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (autor_id, tipo, conteudo, anonimo)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, nullable(autorID), tipo, conteudo, anonimo).Scan(&id)
	if err != nil {
		return models.Post{}, err
	}
	return r.Get(ctx, id, "")
}

func (r *postRepository) Remove(ctx context.Context, id, autorID string) error {
	var removed string
	err := r.db.QueryRowContext(ctx, `
		UPDATE posts SET status = 'removido'
		WHERE id = $1 AND autor_id = $2 AND status = 'ativo'
		RETURNING id
	`, id, autorID).Scan(&removed)
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND status = 'ativo')`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrNotOwner
	}
	return sql.ErrNoRows
}

func (r *postRepository) AuthorOf(ctx context.Context, id string) (*string, error) {
	var autor sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT autor_id FROM posts WHERE id = $1 AND status = 'ativo'`, id,
	).Scan(&autor)
	if err != nil || !autor.Valid {
		return nil, err
	}
	return &autor.String, nil
}

// RefreshTrending flags the top posts by reactions received inside window
// and clears the flag everywhere else.
func (r *postRepository) RefreshTrending(ctx context.Context, window time.Duration, top int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		WITH top AS (
			SELECT p.id
			FROM posts p
			JOIN post_reacoes r ON r.post_id = p.id AND r.created_at > NOW() - make_interval(secs => $1)
			WHERE p.status = 'ativo'
			GROUP BY p.id
			ORDER BY COUNT(*) DESC, MAX(r.created_at) DESC
			LIMIT $2
		)
		UPDATE posts SET em_alta = (id IN (SELECT id FROM top))
		WHERE em_alta OR id IN (SELECT id FROM top)
	`, window.Seconds(), top)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
