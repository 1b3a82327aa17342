package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LedgerKindTransfer = "transfer"
	LedgerKindDeposit  = "deposit"

	LedgerIDPrefix = "TXN"

	// Source label used for entries that are not debited from a customer account
	SystemAccountLabel = "SYSTEM"
)

// LedgerEntry is an immutable record of one balance-affecting event
type LedgerEntry struct {
	Seq       int64
	ID        string
	CreatedAt time.Time
	Kind      string

	// nil when money comes from the bank (deposits)
	FromAccountID *uuid.UUID
	ToAccountID   uuid.UUID

	Amount  decimal.Decimal
	Details string

	// Transfers: source balance after the event. Deposits: credited account balance.
	BalanceAfter decimal.Decimal

	// How much the bank reserve moved in the same unit (zero for transfers)
	ReserveDelta decimal.Decimal
}

func (e LedgerEntry) FromSystem() bool {
	return e.FromAccountID == nil
}

// LedgerDisplayID derives human-readable id from the entry sequence number.
// Numbers are zero padded to 8 digits and never truncated, so distinct sequences give distinct ids.
func LedgerDisplayID(seq int64) string {
	return formatSeqID(LedgerIDPrefix, seq)
}

func formatSeqID(prefix string, seq int64) string {
	return fmt.Sprintf("%s%08d", prefix, seq)
}
