package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/logger"
	"github.com/nkiryanov/minibank/internal/metrics"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/service/ledger"
	"github.com/nkiryanov/minibank/internal/service/validate"
)

type Service struct {
	storage repository.Storage
	ledger  *ledger.Writer
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{
		storage: storage,
		ledger:  ledger.NewWriter(storage),
		logger:  l,
	}
}

type TransferParams struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	Details       string
}

type TransferResult struct {
	Entry models.LedgerEntry

	// Source account balance right after the transfer
	SourceBalance decimal.Decimal
}

// Move amount between accounts and record it in the ledger in one transaction
// Either all effects are committed or none
func (s *Service) Transfer(ctx context.Context, params TransferParams) (TransferResult, error) {
	result, err := s.transfer(ctx, params)
	metrics.Transfers.WithLabelValues(metrics.Outcome(err)).Inc()

	switch {
	case err == nil:
		s.logger.Info("Transfer completed", "id", result.Entry.ID, "from", params.FromAccountID, "to", params.ToAccountID, "amount", params.Amount)
	case errors.Is(err, apperrors.ErrStorage):
		s.logger.Error("Transfer failed", "from", params.FromAccountID, "to", params.ToAccountID, "error", err)
	default:
		s.logger.Debug("Transfer rejected", "from", params.FromAccountID, "to", params.ToAccountID, "error", err)
	}

	return result, err
}

// Same as Transfer but destination is found by account number
func (s *Service) TransferToNumber(ctx context.Context, fromAccountID uuid.UUID, toNumber string, amount decimal.Decimal, details string) (TransferResult, error) {
	to, err := s.storage.Account().GetAccountByNumber(ctx, toNumber)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrAccountNotFound):
		metrics.Transfers.WithLabelValues(metrics.OutcomeAccountNotFound).Inc()
		return TransferResult{}, apperrors.ErrDestinationAccountNotFound
	default:
		return TransferResult{}, fmt.Errorf("can't find destination account. Err: %w", err)
	}

	return s.Transfer(ctx, TransferParams{
		FromAccountID: fromAccountID,
		ToAccountID:   to.ID,
		Amount:        amount,
		Details:       details,
	})
}

func (s *Service) transfer(ctx context.Context, params TransferParams) (TransferResult, error) {
	var result TransferResult

	if err := validate.Amount(params.Amount); err != nil {
		return result, err
	}
	if params.FromAccountID == uuid.Nil {
		return result, apperrors.ErrSourceAccountNotFound
	}
	if params.ToAccountID == uuid.Nil {
		return result, apperrors.ErrDestinationAccountNotFound
	}

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		accounts := storage.Account()

		// Lock rows in ascending id order: two opposite transfers can't deadlock
		ids := []uuid.UUID{params.FromAccountID, params.ToAccountID}
		slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
		ids = slices.Compact(ids)

		locked := make(map[uuid.UUID]models.Account, len(ids))
		for _, id := range ids {
			account, err := accounts.GetAccount(ctx, id, true)
			switch {
			case err == nil:
				locked[id] = account
			case errors.Is(err, apperrors.ErrAccountNotFound) && id == params.FromAccountID:
				return apperrors.ErrSourceAccountNotFound
			case errors.Is(err, apperrors.ErrAccountNotFound):
				return apperrors.ErrDestinationAccountNotFound
			default:
				return err
			}
		}

		if locked[params.FromAccountID].Balance.LessThan(params.Amount) {
			return apperrors.ErrBalanceInsufficient
		}

		source, err := accounts.Debit(ctx, params.FromAccountID, params.Amount)
		if err != nil {
			return err
		}

		destination, err := accounts.Credit(ctx, params.ToAccountID, params.Amount)
		if err != nil {
			return err
		}

		// Self transfer: the credit happened after the debit on the same row
		if params.FromAccountID == params.ToAccountID {
			source = destination
		}

		entry, err := s.ledger.WithStorage(storage).Append(ctx, ledger.AppendParams{
			Kind:          models.LedgerKindTransfer,
			FromAccountID: &params.FromAccountID,
			ToAccountID:   params.ToAccountID,
			Amount:        params.Amount,
			Details:       params.Details,
			BalanceAfter:  source.Balance,
			ReserveDelta:  decimal.Zero,
		})
		if err != nil {
			return err
		}

		result = TransferResult{Entry: entry, SourceBalance: source.Balance}
		return nil
	})
	if err != nil {
		return TransferResult{}, fmt.Errorf("transfer failed. Err: %w", err)
	}

	return result, nil
}
