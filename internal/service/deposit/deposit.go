package deposit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/logger"
	"github.com/nkiryanov/minibank/internal/metrics"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/service/ledger"
	"github.com/nkiryanov/minibank/internal/service/reserve"
	"github.com/nkiryanov/minibank/internal/service/validate"
)

// Max length of deposit note and rejection reason (in characters)
const MaxTextLen = 500

type Service struct {
	storage repository.Storage
	reserve *reserve.Service
	ledger  *ledger.Writer
	logger  logger.Logger
}

func NewService(storage repository.Storage, reserveService *reserve.Service, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{
		storage: storage,
		reserve: reserveService,
		ledger:  ledger.NewWriter(storage),
		logger:  l,
	}
}

type ApproveResult struct {
	Deposit models.DepositRequest

	// Balance of credited account after approval
	AccountBalance decimal.Decimal
	LedgerEntryID  string
}

// Create pending deposit request. Balances are not affected until approval
func (s *Service) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, note string) (models.DepositRequest, error) {
	if err := validate.Amount(amount); err != nil {
		return models.DepositRequest{}, err
	}
	if utf8.RuneCountInString(note) > MaxTextLen {
		return models.DepositRequest{}, apperrors.ErrDepositNoteTooLong
	}

	// Only account owners may ask for deposit
	if _, err := s.storage.Account().GetAccountByUserID(ctx, userID, false); err != nil {
		return models.DepositRequest{}, fmt.Errorf("can't create deposit request. Err: %w", err)
	}

	deposit, err := s.storage.Deposit().CreateDeposit(ctx, repository.CreateDepositParams{
		UserID: userID,
		Amount: amount,
		Note:   note,
	})
	if err != nil {
		return deposit, fmt.Errorf("can't create deposit request. Err: %w", err)
	}

	s.logger.Info("Deposit requested", "id", deposit.ID, "user", userID, "amount", amount)
	return deposit, nil
}

// Approve pending deposit: credit the user from the bank reserve
// Credit, ledger entry, reserve decrease and status change are committed together or not at all
func (s *Service) Approve(ctx context.Context, depositID string, staffID uuid.UUID) (ApproveResult, error) {
	result, err := s.approve(ctx, depositID, staffID)
	metrics.DepositDecisions.WithLabelValues(metrics.DecisionApprove, metrics.Outcome(err)).Inc()

	switch {
	case err == nil:
		s.logger.Info("Deposit approved", "id", depositID, "staff", staffID, "ledger_entry", result.LedgerEntryID)
	case errors.Is(err, apperrors.ErrStorage):
		s.logger.Error("Deposit approval failed", "id", depositID, "staff", staffID, "error", err)
	default:
		s.logger.Warn("Deposit approval rejected", "id", depositID, "staff", staffID, "error", err)
	}

	return result, err
}

func (s *Service) approve(ctx context.Context, depositID string, staffID uuid.UUID) (ApproveResult, error) {
	var result ApproveResult

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		deposit, err := storage.Deposit().GetDeposit(ctx, depositID, true)
		if err != nil {
			return err
		}
		if !deposit.IsPending() {
			return apperrors.ErrDepositAlreadyProcessed
		}

		// Reserve row lock serialises all approvals
		reserveService := s.reserve.WithStorage(storage)
		bankReserve, err := reserveService.Lock(ctx)
		if err != nil {
			return err
		}
		if bankReserve.TotalBalance.LessThan(deposit.Amount) {
			return apperrors.ErrReserveInsufficient
		}

		account, err := storage.Account().GetAccountByUserID(ctx, deposit.UserID, true)
		if err != nil {
			return err
		}

		credited, err := storage.Account().Credit(ctx, account.ID, deposit.Amount)
		if err != nil {
			return err
		}

		entry, err := s.ledger.WithStorage(storage).Append(ctx, ledger.AppendParams{
			Kind:         models.LedgerKindDeposit,
			ToAccountID:  account.ID,
			Amount:       deposit.Amount,
			Details:      "Deposit " + deposit.ID,
			BalanceAfter: credited.Balance,
			ReserveDelta: deposit.Amount.Neg(),
		})
		if err != nil {
			return err
		}

		_, err = reserveService.ApplyDelta(ctx, deposit.Amount.Neg(), models.ReserveTxDeposit, entry.ID)
		if err != nil {
			return err
		}

		approved, err := storage.Deposit().MarkProcessed(ctx, repository.MarkDepositParams{
			ID:            deposit.ID,
			Status:        models.DepositStatusApproved,
			ProcessedBy:   staffID,
			LedgerEntryID: entry.ID,
		})
		if err != nil {
			return err
		}

		result = ApproveResult{
			Deposit:        approved,
			AccountBalance: credited.Balance,
			LedgerEntryID:  entry.ID,
		}
		return nil
	})
	if err != nil {
		return ApproveResult{}, fmt.Errorf("can't approve deposit %s. Err: %w", depositID, err)
	}

	return result, nil
}

// Reject pending deposit with reason. No balance is affected
func (s *Service) Reject(ctx context.Context, depositID string, staffID uuid.UUID, reason string) (models.DepositRequest, error) {
	deposit, err := s.reject(ctx, depositID, staffID, reason)
	metrics.DepositDecisions.WithLabelValues(metrics.DecisionReject, metrics.Outcome(err)).Inc()

	if err == nil {
		s.logger.Info("Deposit rejected", "id", depositID, "staff", staffID)
	}

	return deposit, err
}

func (s *Service) reject(ctx context.Context, depositID string, staffID uuid.UUID, reason string) (models.DepositRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.DepositRequest{}, apperrors.ErrRejectReasonRequired
	}
	if utf8.RuneCountInString(reason) > MaxTextLen {
		return models.DepositRequest{}, apperrors.ErrRejectReasonTooLong
	}

	// Status guard in the update makes it safe without explicit lock
	deposit, err := s.storage.Deposit().MarkProcessed(ctx, repository.MarkDepositParams{
		ID:              depositID,
		Status:          models.DepositStatusRejected,
		ProcessedBy:     staffID,
		RejectionReason: reason,
	})
	if err != nil {
		return deposit, fmt.Errorf("can't reject deposit %s. Err: %w", depositID, err)
	}

	return deposit, nil
}

func (s *Service) Get(ctx context.Context, depositID string) (models.DepositRequest, error) {
	return s.storage.Deposit().GetDeposit(ctx, depositID, false)
}

// User's deposits, newest first
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DepositRequest, error) {
	return s.storage.Deposit().ListDeposits(ctx, repository.ListDepositsOpts{UserID: userID})
}

// All deposits filtered by status (empty means any), newest first
func (s *Service) List(ctx context.Context, status string, limit int) ([]models.DepositRequest, error) {
	opts := repository.ListDepositsOpts{Limit: limit}
	if status != "" {
		opts.Statuses = []string{status}
	}

	return s.storage.Deposit().ListDeposits(ctx, opts)
}

// Count and total per status: Pending, Approved, Rejected
func (s *Service) Stats(ctx context.Context) ([]models.DepositStats, error) {
	return s.storage.Deposit().Stats(ctx)
}
