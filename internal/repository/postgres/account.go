package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
)

type AccountRepo struct {
	DB DBTX
}

const accountColumns = `id, created_at, user_id, number, holder_name, balance, type, status`

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (id, user_id, number, holder_name, type)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + accountColumns

func (r *AccountRepo) CreateAccount(ctx context.Context, params repository.CreateAccountParams) (models.Account, error) {
	accountType := params.Type
	if accountType == "" {
		accountType = models.AccountTypePersonal
	}

	rows, _ := r.DB.Query(ctx, createAccount, uuid.New(), params.UserID, params.Number, params.HolderName, accountType)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case isConstraintError(err, pgerrcode.UniqueViolation, "accounts_user_id_key"):
		return account, apperrors.ErrAccountAlreadyExists
	case isPgError(err, pgerrcode.UniqueViolation):
		return account, apperrors.ErrAccountNumberTaken
	case isPgError(err, pgerrcode.ForeignKeyViolation):
		return account, apperrors.ErrUserNotFound
	default:
		return account, dbError(err)
	}
}

func (r *AccountRepo) GetAccount(ctx context.Context, accountID uuid.UUID, lock bool) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, query, accountID)
	return collectAccount(rows)
}

func (r *AccountRepo) GetAccountByUserID(ctx context.Context, userID uuid.UUID, lock bool) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, query, userID)
	return collectAccount(rows)
}

const getAccountByNumber = `-- name: GetAccountByNumber
SELECT ` + accountColumns + ` FROM accounts
WHERE number = $1
`

func (r *AccountRepo) GetAccountByNumber(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByNumber, number)
	return collectAccount(rows)
}

// Check and decrement in one statement: concurrent debits can't both pass the check
const debitAccount = `-- name: DebitAccount
UPDATE accounts
SET balance = balance - $2
WHERE id = $1 AND balance >= $2
RETURNING ` + accountColumns

func (r *AccountRepo) Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, debitAccount, accountID, amount)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either account does not exist or balance is too low
		if _, getErr := r.GetAccount(ctx, accountID, false); getErr != nil {
			return account, getErr
		}
		return account, apperrors.ErrBalanceInsufficient
	case isPgError(err, pgerrcode.CheckViolation):
		return account, apperrors.ErrBalanceInsufficient
	case isPgError(err, pgerrcode.NumericValueOutOfRange):
		return account, apperrors.ErrBalanceLimit
	default:
		return account, dbError(err)
	}
}

const creditAccount = `-- name: CreditAccount
UPDATE accounts
SET balance = balance + $2
WHERE id = $1
RETURNING ` + accountColumns

func (r *AccountRepo) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, creditAccount, accountID, amount)
	return collectAccount(rows)
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	case isPgError(err, pgerrcode.NumericValueOutOfRange):
		return account, apperrors.ErrBalanceLimit
	default:
		return account, dbError(err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.UserID, &a.Number, &a.HolderName, &a.Balance, &a.Type, &a.Status)
	return a, err
}
