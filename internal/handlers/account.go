package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/minibank/internal/handlers/render"
	"github.com/nkiryanov/minibank/internal/handlers/userctx"
	"github.com/nkiryanov/minibank/internal/logger"
)

func handleAccount(accountService accountService, l logger.Logger) http.Handler {
	type response struct {
		ID         uuid.UUID `json:"id"`
		Number     string    `json:"number"`
		HolderName string    `json:"holder_name"`
		Balance    string    `json:"balance"`
		Type       string    `json:"type"`
		Status     string    `json:"status"`
		CreatedAt  time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		account, err := accountService.GetByUserID(r.Context(), user.ID)
		if err != nil {
			renderServiceError(w, l, "Failed to get account", err)
			return
		}

		render.JSON(w, response{
			ID:         account.ID,
			Number:     account.Number,
			HolderName: account.HolderName,
			Balance:    account.Balance.StringFixed(2),
			Type:       account.Type,
			Status:     account.Status,
			CreatedAt:  account.CreatedAt,
		})
	})
}

func handleAccountLedger(accountService accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		limit, ok := parseLimit(r)
		if !ok {
			render.ServiceError(w, "Invalid limit", http.StatusBadRequest)
			return
		}

		account, err := accountService.GetByUserID(r.Context(), user.ID)
		if err != nil {
			renderServiceError(w, l, "Failed to get account", err)
			return
		}

		entries, err := accountService.Ledger(r.Context(), account.ID, limit)
		if err != nil {
			renderServiceError(w, l, "Failed to list ledger", err)
			return
		}

		views := make([]ledgerEntryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, newLedgerEntryView(e, account.ID))
		}
		render.JSON(w, views)
	})
}
