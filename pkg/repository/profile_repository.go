package repository

import (
	"context"
	"database/sql"

	"desabafa/pkg/database"
	"desabafa/pkg/models"
)

type ProfileRepository interface {
	Get(ctx context.Context, id string) (models.Profile, error)
	GetByHandle(ctx context.Context, apelido string) (models.Profile, error)
	// Create inserts p unless a profile with the same id exists, and returns
	// whichever row is stored.
	Create(ctx context.Context, p models.Profile) (models.Profile, error)
	Update(ctx context.Context, p models.Profile) (models.Profile, error)
	SetPlan(ctx context.Context, id string, plan models.Plan) (models.Profile, error)
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileSelect = `
	SELECT p.id, p.apelido, COALESCE(u.email, ''), p.plano, p.avatar_url, p.mostrar_apelido,
	       p.created_at, p.proxima_troca_apelido
	FROM profiles p
	LEFT JOIN users u ON u.id = p.id`

func scanProfile(row scanner) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Apelido, &p.Email, &p.Plano, &p.AvatarURL, &p.MostrarApelido,
		&p.CreatedAt, &p.ProximaTrocaApelido)
	return p, err
}

func (r *profileRepository) Get(ctx context.Context, id string) (models.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx, profileSelect+` WHERE p.id = $1`, id))
}

func (r *profileRepository) GetByHandle(ctx context.Context, apelido string) (models.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx, profileSelect+` WHERE lower(p.apelido) = lower($1)`, apelido))
}

func (r *profileRepository) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, apelido, plano, avatar_url, mostrar_apelido, proxima_troca_apelido)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Apelido, p.Plano, p.AvatarURL, p.MostrarApelido)
	if database.UniqueViolation(err, "profiles_apelido_key") {
		return models.Profile{}, ErrHandleTaken
	}
	if err != nil {
		return models.Profile{}, err
	}
	return r.Get(ctx, p.ID)
}

func (r *profileRepository) Update(ctx context.Context, p models.Profile) (models.Profile, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET apelido = $2, avatar_url = $3, mostrar_apelido = $4, proxima_troca_apelido = $5
		WHERE id = $1
	`, p.ID, p.Apelido, p.AvatarURL, p.MostrarApelido, p.ProximaTrocaApelido)
	if database.UniqueViolation(err, "profiles_apelido_key") {
		return models.Profile{}, ErrHandleTaken
	}
	if err != nil {
		return models.Profile{}, err
	}
	return r.Get(ctx, p.ID)
}

func (r *profileRepository) SetPlan(ctx context.Context, id string, plan models.Plan) (models.Profile, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET plano = $2 WHERE id = $1`, id, plan)
	if err != nil {
		return models.Profile{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Profile{}, sql.ErrNoRows
	}
	return r.Get(ctx, id)
}
