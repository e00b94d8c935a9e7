package repository

import (
	"context"
	"database/sql"
	"time"

	"desabafa/pkg/models"
)

type AuthRepository interface {
	// UpsertGoogleUser finds the user for a Google subject or creates it.
	// created is true on first sign-in.
	UpsertGoogleUser(ctx context.Context, sub, email string) (user models.User, created bool, err error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	CreateSession(ctx context.Context, userID, tokenHash, userAgent, ip string, expiresAt time.Time) error
	GetSessionByHash(ctx context.Context, tokenHash string) (models.Session, error)
	RotateSession(ctx context.Context, sessionID int64, newHash string, expiresAt time.Time) error
	DeleteSessionByHash(ctx context.Context, tokenHash string) (userID string, err error)
	DeleteAllSessionsByUserID(ctx context.Context, userID string) error
	GetActiveSessionsByUserID(ctx context.Context, userID string) ([]models.Session, error)
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type authRepository struct {
	db *sql.DB
}

func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) UpsertGoogleUser(ctx context.Context, sub, email string) (models.User, bool, error) {
	var user models.User
	var created bool
	// xmax = 0 only for a freshly inserted row
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (google_sub, email) VALUES ($1, $2)
		 ON CONFLICT (google_sub) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id, google_sub, email, created_at, (xmax = 0)`,
		sub, email,
	).Scan(&user.ID, &user.GoogleSub, &user.Email, &user.CreatedAt, &created)
	return user, created, err
}

func (r *authRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, google_sub, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.GoogleSub, &user.Email, &user.CreatedAt)
	return user, err
}

func (r *authRepository) CreateSession(ctx context.Context, userID, tokenHash, userAgent, ip string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, token_hash, user_agent, ip, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, tokenHash, userAgent, ip, expiresAt,
	)
	return err
}

func (r *authRepository) GetSessionByHash(ctx context.Context, tokenHash string) (models.Session, error) {
	var s models.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, user_agent, ip, expires_at, created_at
		 FROM sessions WHERE token_hash = $1`, tokenHash,
	).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.UserAgent, &s.IP, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

func (r *authRepository) RotateSession(ctx context.Context, sessionID int64, newHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET token_hash = $1, expires_at = $2 WHERE id = $3`,
		newHash, expiresAt, sessionID,
	)
	return err
}

func (r *authRepository) DeleteSessionByHash(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM sessions WHERE token_hash = $1 RETURNING user_id`, tokenHash,
	).Scan(&userID)
	return userID, err
}

func (r *authRepository) DeleteAllSessionsByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (r *authRepository) GetActiveSessionsByUserID(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, user_agent, ip, expires_at, created_at FROM sessions
		 WHERE user_id = $1 AND expires_at > NOW() ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.IP, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *authRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
