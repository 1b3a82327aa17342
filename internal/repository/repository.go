package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/models"
)

// Storage groups repositories sharing the same connection (or transaction)
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Account() AccountRepo
	Ledger() LedgerRepo
	Reserve() ReserveRepo
	Deposit() DepositRepo

	// Run fn in transaction. Commit if fn returns nil, rollback otherwise
	// Storage passed to fn is bound to the transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}

type CreateUserParams struct {
	Username       string
	HashedPassword string
	FullName       string
	Role           string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository. Only the token hash is stored
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token and mark it used
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	// If token is used already must return apperrors.ErrRefreshTokenIsUsed
	GetAndMarkUsed(ctx context.Context, tokenHash string) (models.RefreshToken, error)
}

type CreateAccountParams struct {
	UserID     uuid.UUID
	Number     string
	HolderName string
	Type       string
}

type AccountRepo interface {
	// If the number is taken has to return apperrors.ErrAccountNumberTaken
	// If the user has an account already has to return apperrors.ErrAccountAlreadyExists
	CreateAccount(ctx context.Context, params CreateAccountParams) (models.Account, error)

	// Get account. If lock is true the row is locked till the end of transaction
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, accountID uuid.UUID, lock bool) (models.Account, error)
	GetAccountByUserID(ctx context.Context, userID uuid.UUID, lock bool) (models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (models.Account, error)

	// Decrease balance only if it stays non-negative
	// Has to return apperrors.ErrBalanceInsufficient otherwise
	Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (models.Account, error)

	// Increase balance
	// Has to return apperrors.ErrBalanceLimit if balance does not fit the money column
	Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (models.Account, error)
}

type CreateLedgerEntryParams struct {
	Kind          string
	FromAccountID *uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	Details       string
	BalanceAfter  decimal.Decimal
	ReserveDelta  decimal.Decimal
}

type ListLedgerOpts struct {
	// Entries where the account is either source or destination
	AccountID uuid.UUID

	// Zero means no limit
	Limit int
}

// Ledger is append-only: no update or delete methods
type LedgerRepo interface {
	// Allocate next sequence number and write the entry with derived display id
	CreateEntry(ctx context.Context, params CreateLedgerEntryParams) (models.LedgerEntry, error)

	// If entry not found must return apperrors.ErrLedgerEntryNotFound
	GetEntry(ctx context.Context, id string) (models.LedgerEntry, error)

	// Newest first
	ListEntries(ctx context.Context, opts ListLedgerOpts) ([]models.LedgerEntry, error)

	// Sum of reserve deltas over the whole ledger
	SumReserveDelta(ctx context.Context) (decimal.Decimal, error)
}

type ApplyReserveDeltaParams struct {
	Delta           decimal.Decimal
	TransactionType string
	TransactionID   string
}

type ReserveRepo interface {
	// Get the reserve, create it with seed balance if it does not exist yet
	// If lock is true the row is locked till the end of transaction
	GetOrCreateReserve(ctx context.Context, seed decimal.Decimal, lock bool) (models.BankReserve, error)

	// Apply delta if reserve stays non-negative
	// Has to return apperrors.ErrReserveInsufficient otherwise
	ApplyDelta(ctx context.Context, params ApplyReserveDeltaParams) (models.BankReserve, error)
}

type CreateDepositParams struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Note   string
}

type ListDepositsOpts struct {
	// Filter by user if not uuid.Nil
	UserID uuid.UUID

	// Filter by statuses if not empty
	Statuses []string

	// Zero means no limit
	Limit int
}

type MarkDepositParams struct {
	ID              string
	Status          string
	ProcessedBy     uuid.UUID
	RejectionReason string
	LedgerEntryID   string
}

type DepositRepo interface {
	CreateDeposit(ctx context.Context, params CreateDepositParams) (models.DepositRequest, error)

	// If deposit not found must return apperrors.ErrDepositNotFound
	GetDeposit(ctx context.Context, id string, lock bool) (models.DepositRequest, error)

	// Newest first
	ListDeposits(ctx context.Context, opts ListDepositsOpts) ([]models.DepositRequest, error)

	// Move pending deposit to terminal status
	// Has to return apperrors.ErrDepositAlreadyProcessed if deposit is not pending
	MarkProcessed(ctx context.Context, params MarkDepositParams) (models.DepositRequest, error)

	// Count and sum per status. Statuses without deposits are reported with zeros
	Stats(ctx context.Context) ([]models.DepositStats, error)
}
