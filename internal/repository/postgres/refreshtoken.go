package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token_hash, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, token_hash, created_at, expires_at, used_at
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, saveToken, token.ID, token.UserID, token.TokenHash, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, dbError(err)
	}

	return saved, nil
}

// Set used_at only once; the previous value is returned to tell whether the token was used before
const getAndMarkUsed = `-- name: GetAndMarkUsed
UPDATE refresh_tokens t
SET used_at = COALESCE(t.used_at, $2)
FROM (SELECT id, used_at FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE) prev
WHERE t.id = prev.id
RETURNING t.id, t.user_id, t.token_hash, t.created_at, t.expires_at, prev.used_at
`

func (r *RefreshTokenRepo) GetAndMarkUsed(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	now := time.Now()
	rows, _ := r.DB.Query(ctx, getAndMarkUsed, tokenHash, now)
	got, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil && got.UsedAt == nil:
		got.UsedAt = &now
		return got, nil
	case err == nil:
		return got, apperrors.ErrRefreshTokenIsUsed
	case errors.Is(err, pgx.ErrNoRows):
		return got, apperrors.ErrRefreshTokenNotFound
	default:
		return got, dbError(err)
	}
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
	return t, err
}
