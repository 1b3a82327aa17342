package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/service/validate"
)

// Create user with role 'user' and its account holding balance
func CreateAccount(t *testing.T, storage repository.Storage, username string, balance string) models.Account {
	t.Helper()

	user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
		Username:       username,
		HashedPassword: "not-a-hash",
		FullName:       username,
		Role:           models.RoleUser,
	})
	require.NoError(t, err, "fixture user creation failed")

	account, err := storage.Account().CreateAccount(t.Context(), repository.CreateAccountParams{
		UserID:     user.ID,
		Number:     validate.AccountNumber(),
		HolderName: username,
	})
	require.NoError(t, err, "fixture account creation failed")

	amount := decimal.RequireFromString(balance)
	if amount.IsPositive() {
		account, err = storage.Account().Credit(t.Context(), account.ID, amount)
		require.NoError(t, err, "fixture account funding failed")
	}

	return account
}

func CreateStaff(t *testing.T, storage repository.Storage, username string) models.User {
	t.Helper()

	user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
		Username:       username,
		HashedPassword: "not-a-hash",
		FullName:       username,
		Role:           models.RoleStaff,
	})
	require.NoError(t, err, "fixture staff creation failed")

	return user
}
