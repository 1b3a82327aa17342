package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DepositStatusPending  = "Pending"
	DepositStatusApproved = "Approved"
	DepositStatusRejected = "Rejected"

	DepositIDPrefix = "DEP"
)

var DepositStatuses = []string{DepositStatusPending, DepositStatusApproved, DepositStatusRejected}

type DepositRequest struct {
	Seq       int64
	ID        string
	CreatedAt time.Time
	UserID    uuid.UUID
	Amount    decimal.Decimal
	Note      string
	Status    string

	RejectionReason string
	ProcessedBy     *uuid.UUID
	ProcessedAt     *time.Time
	LedgerEntryID   string
}

func (d DepositRequest) IsPending() bool {
	return d.Status == DepositStatusPending
}

func DepositDisplayID(seq int64) string {
	return formatSeqID(DepositIDPrefix, seq)
}

// Aggregated deposit requests per status
type DepositStats struct {
	Status string
	Count  int64
	Total  decimal.Decimal
}
