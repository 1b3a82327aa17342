package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	params := repository.CreateUserParams{
		Username:       "testuser",
		HashedPassword: "hashedpassword123",
		FullName:       "Test User",
	}

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			user, err := r.CreateUser(t.Context(), params)

			require.NoError(t, err)
			assert.Equal(t, "testuser", user.Username)
			assert.Equal(t, "hashedpassword123", user.HashedPassword)
			assert.Equal(t, "Test User", user.FullName)
			assert.Equal(t, models.RoleUser, user.Role, "default role should be user")
			assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Second, "CreatedAt should be recent")
		})
	})

	t.Run("create staff user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			staff := params
			staff.Role = models.RoleStaff

			user, err := r.CreateUser(t.Context(), staff)

			require.NoError(t, err)
			assert.Equal(t, models.RoleStaff, user.Role)
			assert.True(t, user.IsStaff())
		})
	})

	t.Run("create user twice fail", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			_, err := r.CreateUser(t.Context(), params)
			require.NoError(t, err)

			_, err = r.CreateUser(t.Context(), params)

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("get user by id ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), params)
			require.NoError(t, err)

			got, err := r.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			assert.Equal(t, created, got)
		})
	})

	t.Run("get user by id not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByID(t.Context(), uuid.New())

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
		})
	})

	t.Run("get user by username ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), params)
			require.NoError(t, err)

			got, err := r.GetUserByUsername(t.Context(), created.Username)

			require.NoError(t, err)
			assert.Equal(t, created, got)
		})
	})

	t.Run("get user by username not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByUsername(t.Context(), "nonexistentuser")

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}

// Create user and its account in tx. Balance is set directly
func createTestAccount(t *testing.T, tx pgx.Tx, username string, number string, balance string) models.Account {
	t.Helper()

	user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), repository.CreateUserParams{
		Username:       username,
		HashedPassword: "hashed",
		FullName:       username,
	})
	require.NoError(t, err)

	repo := &AccountRepo{DB: tx}
	account, err := repo.CreateAccount(t.Context(), repository.CreateAccountParams{
		UserID:     user.ID,
		Number:     number,
		HolderName: username,
	})
	require.NoError(t, err)

	_, err = tx.Exec(t.Context(), `UPDATE accounts SET balance = $2 WHERE id = $1`, account.ID, decimal.RequireFromString(balance))
	require.NoError(t, err)

	account, err = repo.GetAccount(t.Context(), account.ID, false)
	require.NoError(t, err)

	return account
}
