package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/testutil"
)

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Token references the user, so every subtest saves the user first
	newToken := func(t *testing.T, tx pgx.Tx) models.RefreshToken {
		user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), repository.CreateUserParams{Username: "owner", HashedPassword: "pwd"})
		require.NoError(t, err)

		return models.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			TokenHash: "secret-token-hash",
			CreatedAt: testutil.MustParseTime("2024-01-01 19:00:01Z"),
			ExpiresAt: testutil.MustParseTime("2200-01-01 03:00:02Z"),
			UsedAt:    nil,
		}
	}

	t.Run("create token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(t, tx)

			got, err := repo.Save(t.Context(), token)

			require.NoError(t, err)
			require.Equal(t, token.ID, got.ID)
			require.Equal(t, token.UserID, got.UserID)
			require.Equal(t, token.TokenHash, got.TokenHash)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Microsecond)
			require.Nil(t, got.UsedAt, "UsedAt should be nil cause original token has UsedAt as nil")
		})
	})

	t.Run("mark token used", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(t, tx)
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.GetAndMarkUsed(t.Context(), token.TokenHash)

			require.NoError(t, err, "No error must be happen when marking used existed token")
			require.NotNil(t, got.UsedAt, "token must marked used")
			require.WithinDuration(t, time.Now(), *got.UsedAt, time.Second, "should marked as used close to now() enough")
			require.Equal(t, token.TokenHash, got.TokenHash)
			require.Equal(t, token.UserID, got.UserID)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, 0)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, 0)
		})
	})

	t.Run("mark used not existed token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.GetAndMarkUsed(t.Context(), "not-existed")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("mark used twice fail", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(t, tx)
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			tokenFirst, err := repo.GetAndMarkUsed(t.Context(), token.TokenHash)
			require.NoError(t, err, "No error should happen on make used")

			tokenSecond, err := repo.GetAndMarkUsed(t.Context(), token.TokenHash)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed, "should return ErrRefreshTokenIsUsed error")

			require.NotNil(t, tokenSecond.UsedAt)
			assert.WithinDuration(t, *tokenFirst.UsedAt, *tokenSecond.UsedAt, time.Microsecond, "should return same time for already used token")
		})
	})
}
