package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/minibank/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ledgerEntryView struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	From    string    `json:"from"`
	To      uuid.UUID `json:"to"`
	Amount  string    `json:"amount"`
	Details string    `json:"details,omitempty"`

	// Shown only to the account whose balance it is
	BalanceAfter *string `json:"balance_after,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func newLedgerEntryView(e models.LedgerEntry, viewer uuid.UUID) ledgerEntryView {
	v := ledgerEntryView{
		ID:        e.ID,
		Kind:      e.Kind,
		From:      models.SystemAccountLabel,
		To:        e.ToAccountID,
		Amount:    e.Amount.StringFixed(2),
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
	}
	if !e.FromSystem() {
		v.From = e.FromAccountID.String()
	}

	ownsBalance := (e.FromSystem() && e.ToAccountID == viewer) || (!e.FromSystem() && *e.FromAccountID == viewer)
	if ownsBalance {
		balance := e.BalanceAfter.StringFixed(2)
		v.BalanceAfter = &balance
	}

	return v
}

type depositView struct {
	ID              string     `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Amount          string     `json:"amount"`
	Note            string     `json:"note,omitempty"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ProcessedBy     *uuid.UUID `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	LedgerEntryID   string     `json:"ledger_entry_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newDepositView(d models.DepositRequest) depositView {
	return depositView{
		ID:              d.ID,
		UserID:          d.UserID,
		Amount:          d.Amount.StringFixed(2),
		Note:            d.Note,
		Status:          d.Status,
		RejectionReason: d.RejectionReason,
		ProcessedBy:     d.ProcessedBy,
		ProcessedAt:     d.ProcessedAt,
		LedgerEntryID:   d.LedgerEntryID,
		CreatedAt:       d.CreatedAt,
	}
}

func newDepositViews(deposits []models.DepositRequest) []depositView {
	views := make([]depositView, 0, len(deposits))
	for _, d := range deposits {
		views = append(views, newDepositView(d))
	}
	return views
}

// Read 'limit' query param. Returns false if it is not a positive number
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, false
	}

	return min(limit, maxListLimit), true
}
