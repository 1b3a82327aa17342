package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
)

type ReserveRepo struct {
	DB DBTX
}

const reserveColumns = `total_balance, seed_balance, last_transaction_id, last_transaction_amount, last_transaction_type, updated_at`

// Singleton row: primary key is constant TRUE, concurrent creators conflict and do nothing
const createReserve = `-- name: CreateReserve
INSERT INTO bank_reserve (id, total_balance, seed_balance)
VALUES (TRUE, $1, $1)
ON CONFLICT (id) DO NOTHING
`

func (r *ReserveRepo) GetOrCreateReserve(ctx context.Context, seed decimal.Decimal, lock bool) (models.BankReserve, error) {
	if _, err := r.DB.Exec(ctx, createReserve, seed); err != nil {
		return models.BankReserve{}, dbError(err)
	}

	query := `SELECT ` + reserveColumns + ` FROM bank_reserve WHERE id`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, query)
	reserve, err := pgx.CollectOneRow(rows, rowToReserve)
	if err != nil {
		return reserve, dbError(err)
	}

	return reserve, nil
}

const applyReserveDelta = `-- name: ApplyReserveDelta
UPDATE bank_reserve
SET total_balance = total_balance + $1,
    last_transaction_id = $2,
    last_transaction_amount = $3,
    last_transaction_type = $4,
    updated_at = now()
WHERE id AND total_balance + $1 >= 0
RETURNING ` + reserveColumns

// Reserve row has to exist: no rows updated is reported as insufficient reserve
func (r *ReserveRepo) ApplyDelta(ctx context.Context, params repository.ApplyReserveDeltaParams) (models.BankReserve, error) {
	rows, _ := r.DB.Query(ctx, applyReserveDelta, params.Delta, params.TransactionID, params.Delta.Abs(), params.TransactionType)
	reserve, err := pgx.CollectOneRow(rows, rowToReserve)

	switch {
	case err == nil:
		return reserve, nil
	case errors.Is(err, pgx.ErrNoRows), isPgError(err, pgerrcode.CheckViolation):
		return reserve, apperrors.ErrReserveInsufficient
	default:
		return reserve, dbError(err)
	}
}

func rowToReserve(row pgx.CollectableRow) (models.BankReserve, error) {
	var r models.BankReserve
	err := row.Scan(&r.TotalBalance, &r.SeedBalance, &r.LastTransactionID, &r.LastTransactionAmount, &r.LastTransactionType, &r.UpdatedAt)
	return r, err
}
