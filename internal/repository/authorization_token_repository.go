package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examenv-backend/internal/model"
)

// AuthorizationTokenRepository handles exam environment token data access.
type AuthorizationTokenRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorizationTokenRepository creates a new AuthorizationTokenRepository.
func NewAuthorizationTokenRepository(pool *pgxpool.Pool) *AuthorizationTokenRepository {
	return &AuthorizationTokenRepository{pool: pool}
}

// Replace stores a fresh token for userID, dropping any token the user held.
func (r *AuthorizationTokenRepository) Replace(ctx context.Context, userID uuid.UUID, expireAt time.Time) (*model.AuthorizationToken, error) {
	t := &model.AuthorizationToken{UserID: userID, ExpireAt: expireAt}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_environment_authorization_tokens (user_id, expire_at)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET id = gen_random_uuid(), expire_at = EXCLUDED.expire_at, created_at = NOW()
		 RETURNING id, created_at`,
		userID, expireAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}

// GetByID retrieves a token by its UUID.
func (r *AuthorizationTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AuthorizationToken, error) {
	t := &model.AuthorizationToken{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, expire_at, created_at
		 FROM exam_environment_authorization_tokens WHERE id = $1`, id,
	).Scan(&t.ID, &t.UserID, &t.ExpireAt, &t.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}
