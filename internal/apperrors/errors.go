package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrAccountNotFound            = errors.New("account not found")
	ErrSourceAccountNotFound      = fmt.Errorf("source %w", ErrAccountNotFound)
	ErrDestinationAccountNotFound = fmt.Errorf("destination %w", ErrAccountNotFound)
	ErrAccountNumberTaken         = errors.New("account number already taken")
	ErrAccountAlreadyExists       = errors.New("user already has an account")

	ErrAmountInvalid       = errors.New("amount must be positive, below 10^16 and have at most 2 decimal places")
	ErrBalanceInsufficient = errors.New("insufficient balance")
	ErrBalanceLimit        = errors.New("balance would exceed account limit")
	ErrReserveInsufficient = errors.New("insufficient bank reserve")

	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	ErrDepositNotFound         = errors.New("deposit request not found")
	ErrDepositAlreadyProcessed = errors.New("deposit request already processed")
	ErrDepositNoteTooLong      = errors.New("deposit note is too long")
	ErrRejectReasonRequired    = errors.New("reject reason is required")
	ErrRejectReasonTooLong     = errors.New("reject reason is too long")

	// Underlying database failure; the surrounding transaction is rolled back
	ErrStorage = errors.New("storage failure")
)
