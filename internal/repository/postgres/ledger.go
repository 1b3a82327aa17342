package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
)

type LedgerRepo struct {
	DB DBTX
}

const ledgerColumns = `seq, id, created_at, kind, from_account_id, to_account_id, amount, details, balance_after, reserve_delta`

// nextval is atomic across concurrent transactions and never hands out the same value twice
const nextLedgerSeq = `SELECT nextval('ledger_entries_seq')`

const createLedgerEntry = `-- name: CreateLedgerEntry
INSERT INTO ledger_entries (seq, id, kind, from_account_id, to_account_id, amount, details, balance_after, reserve_delta)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + ledgerColumns

func (r *LedgerRepo) CreateEntry(ctx context.Context, params repository.CreateLedgerEntryParams) (models.LedgerEntry, error) {
	var seq int64
	if err := r.DB.QueryRow(ctx, nextLedgerSeq).Scan(&seq); err != nil {
		return models.LedgerEntry{}, dbError(err)
	}

	rows, _ := r.DB.Query(ctx, createLedgerEntry,
		seq,
		models.LedgerDisplayID(seq),
		params.Kind,
		params.FromAccountID,
		params.ToAccountID,
		params.Amount,
		params.Details,
		params.BalanceAfter,
		params.ReserveDelta,
	)
	entry, err := pgx.CollectOneRow(rows, rowToLedgerEntry)
	if err != nil {
		return entry, dbError(err)
	}

	return entry, nil
}

const getLedgerEntry = `-- name: GetLedgerEntry
SELECT ` + ledgerColumns + ` FROM ledger_entries
WHERE id = $1
`

func (r *LedgerRepo) GetEntry(ctx context.Context, id string) (models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, getLedgerEntry, id)
	entry, err := pgx.CollectOneRow(rows, rowToLedgerEntry)

	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, pgx.ErrNoRows):
		return entry, apperrors.ErrLedgerEntryNotFound
	default:
		return entry, dbError(err)
	}
}

// LIMIT NULL means no limit
const listLedgerEntries = `-- name: ListLedgerEntries
SELECT ` + ledgerColumns + ` FROM ledger_entries
WHERE from_account_id = $1 OR to_account_id = $1
ORDER BY seq DESC
LIMIT $2
`

func (r *LedgerRepo) ListEntries(ctx context.Context, opts repository.ListLedgerOpts) ([]models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, listLedgerEntries, opts.AccountID, limitArg(opts.Limit))
	entries, err := pgx.CollectRows(rows, rowToLedgerEntry)
	if err != nil {
		return nil, dbError(err)
	}

	return entries, nil
}

const sumReserveDelta = `SELECT COALESCE(SUM(reserve_delta), 0) FROM ledger_entries`

func (r *LedgerRepo) SumReserveDelta(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.DB.QueryRow(ctx, sumReserveDelta).Scan(&sum); err != nil {
		return sum, dbError(err)
	}

	return sum, nil
}

func rowToLedgerEntry(row pgx.CollectableRow) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.Seq, &e.ID, &e.CreatedAt, &e.Kind, &e.FromAccountID, &e.ToAccountID, &e.Amount, &e.Details, &e.BalanceAfter, &e.ReserveDelta)
	return e, err
}

func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
