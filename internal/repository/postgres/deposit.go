package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
)

type DepositRepo struct {
	DB DBTX
}

const depositColumns = `seq, id, created_at, user_id, amount, note, status, rejection_reason, processed_by, processed_at, COALESCE(ledger_entry_id, '')`

const nextDepositSeq = `SELECT nextval('deposit_requests_seq')`

const createDeposit = `-- name: CreateDeposit
INSERT INTO deposit_requests (seq, id, user_id, amount, note, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + depositColumns

func (r *DepositRepo) CreateDeposit(ctx context.Context, params repository.CreateDepositParams) (models.DepositRequest, error) {
	var seq int64
	if err := r.DB.QueryRow(ctx, nextDepositSeq).Scan(&seq); err != nil {
		return models.DepositRequest{}, dbError(err)
	}

	rows, _ := r.DB.Query(ctx, createDeposit,
		seq,
		models.DepositDisplayID(seq),
		params.UserID,
		params.Amount,
		params.Note,
		models.DepositStatusPending,
	)
	deposit, err := pgx.CollectOneRow(rows, rowToDeposit)

	switch {
	case err == nil:
		return deposit, nil
	case isPgError(err, pgerrcode.ForeignKeyViolation):
		return deposit, apperrors.ErrUserNotFound
	default:
		return deposit, dbError(err)
	}
}

func (r *DepositRepo) GetDeposit(ctx context.Context, id string, lock bool) (models.DepositRequest, error) {
	query := `SELECT ` + depositColumns + ` FROM deposit_requests WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, query, id)
	deposit, err := pgx.CollectOneRow(rows, rowToDeposit)

	switch {
	case err == nil:
		return deposit, nil
	case errors.Is(err, pgx.ErrNoRows):
		return deposit, apperrors.ErrDepositNotFound
	default:
		return deposit, dbError(err)
	}
}

const listDeposits = `-- name: ListDeposits
SELECT ` + depositColumns + ` FROM deposit_requests
WHERE ($1::uuid IS NULL OR user_id = $1)
  AND (cardinality($2::text[]) = 0 OR status = ANY($2))
ORDER BY seq DESC
LIMIT $3
`

func (r *DepositRepo) ListDeposits(ctx context.Context, opts repository.ListDepositsOpts) ([]models.DepositRequest, error) {
	var userID any
	if opts.UserID != uuid.Nil {
		userID = opts.UserID
	}

	statuses := opts.Statuses
	if statuses == nil {
		statuses = []string{}
	}

	rows, _ := r.DB.Query(ctx, listDeposits, userID, statuses, limitArg(opts.Limit))
	deposits, err := pgx.CollectRows(rows, rowToDeposit)
	if err != nil {
		return nil, dbError(err)
	}

	return deposits, nil
}

// Status guard makes the transition happen at most once even without row lock
const markDepositProcessed = `-- name: MarkDepositProcessed
UPDATE deposit_requests
SET status = $2,
    processed_by = $3,
    processed_at = $4,
    rejection_reason = $5,
    ledger_entry_id = NULLIF($6, '')
WHERE id = $1 AND status = 'Pending'
RETURNING ` + depositColumns

func (r *DepositRepo) MarkProcessed(ctx context.Context, params repository.MarkDepositParams) (models.DepositRequest, error) {
	rows, _ := r.DB.Query(ctx, markDepositProcessed,
		params.ID,
		params.Status,
		params.ProcessedBy,
		time.Now(),
		params.RejectionReason,
		params.LedgerEntryID,
	)
	deposit, err := pgx.CollectOneRow(rows, rowToDeposit)

	switch {
	case err == nil:
		return deposit, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Tell apart missing deposit and already processed one
		if _, getErr := r.GetDeposit(ctx, params.ID, false); getErr != nil {
			return deposit, getErr
		}
		return deposit, apperrors.ErrDepositAlreadyProcessed
	default:
		return deposit, dbError(err)
	}
}

const depositStats = `-- name: DepositStats
SELECT s.status, COUNT(d.seq), COALESCE(SUM(d.amount), 0)
FROM unnest($1::text[]) AS s(status)
LEFT JOIN deposit_requests d ON d.status = s.status
GROUP BY s.status
`

func (r *DepositRepo) Stats(ctx context.Context) ([]models.DepositStats, error) {
	rows, _ := r.DB.Query(ctx, depositStats, models.DepositStatuses)
	collected, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DepositStats, error) {
		var s models.DepositStats
		err := row.Scan(&s.Status, &s.Count, &s.Total)
		return s, err
	})
	if err != nil {
		return nil, dbError(err)
	}

	// Keep stable order: Pending, Approved, Rejected
	byStatus := make(map[string]models.DepositStats, len(collected))
	for _, s := range collected {
		byStatus[s.Status] = s
	}

	stats := make([]models.DepositStats, 0, len(models.DepositStatuses))
	for _, status := range models.DepositStatuses {
		s, ok := byStatus[status]
		if !ok {
			s = models.DepositStats{Status: status, Total: decimal.Zero}
		}
		stats = append(stats, s)
	}

	return stats, nil
}

func rowToDeposit(row pgx.CollectableRow) (models.DepositRequest, error) {
	var d models.DepositRequest
	err := row.Scan(
		&d.Seq,
		&d.ID,
		&d.CreatedAt,
		&d.UserID,
		&d.Amount,
		&d.Note,
		&d.Status,
		&d.RejectionReason,
		&d.ProcessedBy,
		&d.ProcessedAt,
		&d.LedgerEntryID,
	)
	return d, err
}
