package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/handlers/render"
	"github.com/nkiryanov/minibank/internal/logger"
)

func handleGetReserve(reserveService reserveService, l logger.Logger) http.Handler {
	type response struct {
		TotalBalance          string    `json:"total_balance"`
		SeedBalance           string    `json:"seed_balance"`
		LastTransactionID     string    `json:"last_transaction_id,omitempty"`
		LastTransactionAmount string    `json:"last_transaction_amount"`
		LastTransactionType   string    `json:"last_transaction_type,omitempty"`
		UpdatedAt             time.Time `json:"updated_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reserve, err := reserveService.Get(r.Context())
		if err != nil {
			renderServiceError(w, l, "Failed to get reserve", err)
			return
		}

		render.JSON(w, response{
			TotalBalance:          reserve.TotalBalance.StringFixed(2),
			SeedBalance:           reserve.SeedBalance.StringFixed(2),
			LastTransactionID:     reserve.LastTransactionID,
			LastTransactionAmount: reserve.LastTransactionAmount.StringFixed(2),
			LastTransactionType:   reserve.LastTransactionType,
			UpdatedAt:             reserve.UpdatedAt,
		})
	})
}

// Advisory check, approval re-checks the reserve under lock
func handleCheckReserve(reserveService reserveService, l logger.Logger) http.Handler {
	type response struct {
		Amount     string `json:"amount"`
		Sufficient bool   `json:"sufficient"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
		if err != nil {
			render.ServiceError(w, "Invalid amount", http.StatusBadRequest)
			return
		}

		sufficient, err := reserveService.HasSufficientFunds(r.Context(), amount)
		if err != nil {
			renderServiceError(w, l, "Failed to check reserve", err)
			return
		}

		render.JSON(w, response{Amount: amount.StringFixed(2), Sufficient: sufficient})
	})
}

func handleAuditReserve(auditor auditor, l logger.Logger) http.Handler {
	type response struct {
		Balance     string `json:"balance"`
		Seed        string `json:"seed"`
		LedgerDelta string `json:"ledger_delta"`
		Expected    string `json:"expected"`
		Drift       string `json:"drift"`
		Consistent  bool   `json:"consistent"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report, err := auditor.Check(r.Context())
		if err != nil {
			renderServiceError(w, l, "Failed to audit reserve", err)
			return
		}

		render.JSON(w, response{
			Balance:     report.Balance.StringFixed(2),
			Seed:        report.Seed.StringFixed(2),
			LedgerDelta: report.LedgerDelta.StringFixed(2),
			Expected:    report.Expected.StringFixed(2),
			Drift:       report.Drift.StringFixed(2),
			Consistent:  report.Consistent(),
		})
	})
}
