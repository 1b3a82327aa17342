package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReserveTxDeposit    = "deposit"
	ReserveTxWithdrawal = "withdrawal"
)

// BankReserve is the singleton pool of funds backing deposit approvals
type BankReserve struct {
	TotalBalance decimal.Decimal
	SeedBalance  decimal.Decimal

	LastTransactionID     string
	LastTransactionAmount decimal.Decimal
	LastTransactionType   string

	UpdatedAt time.Time
}
