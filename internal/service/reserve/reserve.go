package reserve

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/service/validate"
)

// Reserve balance used when the reserve is accessed first time
var DefaultSeed = decimal.NewFromInt(1_000_000)

type Service struct {
	storage repository.Storage
	seed    decimal.Decimal
}

// Create reserve service. Zero seed means DefaultSeed
func NewService(storage repository.Storage, seed decimal.Decimal) *Service {
	if seed.IsZero() {
		seed = DefaultSeed
	}

	return &Service{storage: storage, seed: seed}
}

// Return service that works within storage (usually bound to transaction)
func (s *Service) WithStorage(storage repository.Storage) *Service {
	return &Service{storage: storage, seed: s.seed}
}

func (s *Service) Seed() decimal.Decimal {
	return s.seed
}

// Current reserve snapshot. Reserve is created with the seed if it does not exist yet
func (s *Service) Get(ctx context.Context) (models.BankReserve, error) {
	return s.storage.Reserve().GetOrCreateReserve(ctx, s.seed, false)
}

// Same as Get but the row stays locked till the end of surrounding transaction
func (s *Service) Lock(ctx context.Context) (models.BankReserve, error) {
	return s.storage.Reserve().GetOrCreateReserve(ctx, s.seed, true)
}

// Advisory check: the answer may be stale as soon as it returned
func (s *Service) HasSufficientFunds(ctx context.Context, amount decimal.Decimal) (bool, error) {
	if err := validate.Amount(amount); err != nil {
		return false, err
	}

	reserve, err := s.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("can't get reserve. Err: %w", err)
	}

	return reserve.TotalBalance.GreaterThanOrEqual(amount), nil
}

// Move reserve by delta and remember the transaction
// Returns new total balance or apperrors.ErrReserveInsufficient if it would become negative
//
// Deposit approval writes the matching ledger entry itself. Any other caller has to write
// a ledger entry with the same reserve_delta in the same transaction, otherwise the auditor
// reports the difference as drift.
func (s *Service) ApplyDelta(ctx context.Context, delta decimal.Decimal, txType string, txRef string) (decimal.Decimal, error) {
	var total decimal.Decimal

	if delta.IsZero() || !delta.Equal(delta.Truncate(2)) {
		return total, apperrors.ErrAmountInvalid
	}

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		// Make sure the row exists and serialise concurrent updates
		if _, err := storage.Reserve().GetOrCreateReserve(ctx, s.seed, true); err != nil {
			return err
		}

		reserve, err := storage.Reserve().ApplyDelta(ctx, repository.ApplyReserveDeltaParams{
			Delta:           delta,
			TransactionType: txType,
			TransactionID:   txRef,
		})
		if err != nil {
			return err
		}

		total = reserve.TotalBalance
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("can't apply reserve delta. Err: %w", err)
	}

	return total, nil
}
