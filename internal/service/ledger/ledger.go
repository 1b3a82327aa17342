package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/service/validate"
)

// Writer appends immutable entries to the ledger
type Writer struct {
	storage repository.Storage
}

func NewWriter(storage repository.Storage) *Writer {
	return &Writer{storage: storage}
}

// Return writer that works within storage (usually bound to transaction)
func (w *Writer) WithStorage(storage repository.Storage) *Writer {
	return &Writer{storage: storage}
}

type AppendParams struct {
	Kind string

	// nil for entries funded by the bank
	FromAccountID *uuid.UUID
	ToAccountID   uuid.UUID

	Amount       decimal.Decimal
	Details      string
	BalanceAfter decimal.Decimal
	ReserveDelta decimal.Decimal
}

func (w *Writer) Append(ctx context.Context, params AppendParams) (models.LedgerEntry, error) {
	if err := validate.Amount(params.Amount); err != nil {
		return models.LedgerEntry{}, err
	}

	entry, err := w.storage.Ledger().CreateEntry(ctx, repository.CreateLedgerEntryParams{
		Kind:          params.Kind,
		FromAccountID: params.FromAccountID,
		ToAccountID:   params.ToAccountID,
		Amount:        params.Amount,
		Details:       params.Details,
		BalanceAfter:  params.BalanceAfter,
		ReserveDelta:  params.ReserveDelta,
	})
	if err != nil {
		return entry, fmt.Errorf("can't append ledger entry. Err: %w", err)
	}

	return entry, nil
}

func (w *Writer) Get(ctx context.Context, id string) (models.LedgerEntry, error) {
	return w.storage.Ledger().GetEntry(ctx, id)
}

// Entries where account is source or destination, newest first
// Zero limit means no limit
func (w *Writer) List(ctx context.Context, accountID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	return w.storage.Ledger().ListEntries(ctx, repository.ListLedgerOpts{AccountID: accountID, Limit: limit})
}
