package handlers

import (
	"net/http"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/handlers/render"
	"github.com/nkiryanov/minibank/internal/handlers/userctx"
	"github.com/nkiryanov/minibank/internal/logger"
	"github.com/nkiryanov/minibank/internal/models"
)

func handleCreateDeposit(depositService depositService, l logger.Logger) http.Handler {
	type request struct {
		Amount decimal.Decimal `json:"amount" validate:"required"`
		Note   string          `json:"note"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		deposit, err := depositService.Create(r.Context(), user.ID, data.Amount, data.Note)
		if err != nil {
			renderServiceError(w, l, "Failed to create deposit request", err)
			return
		}

		render.JSON(w, newDepositView(deposit))
	})
}

func handleListUserDeposits(depositService depositService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		deposits, err := depositService.ListForUser(r.Context(), user.ID)
		if err != nil {
			renderServiceError(w, l, "Failed to list deposits", err)
			return
		}

		render.JSON(w, newDepositViews(deposits))
	})
}

func handleListDeposits(depositService depositService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status != "" && !slices.Contains(models.DepositStatuses, status) {
			render.ServiceError(w, "Unknown deposit status", http.StatusBadRequest)
			return
		}

		limit, ok := parseLimit(r)
		if !ok {
			render.ServiceError(w, "Invalid limit", http.StatusBadRequest)
			return
		}

		deposits, err := depositService.List(r.Context(), status, limit)
		if err != nil {
			renderServiceError(w, l, "Failed to list deposits", err)
			return
		}

		render.JSON(w, newDepositViews(deposits))
	})
}

func handleApproveDeposit(depositService depositService, l logger.Logger) http.Handler {
	type response struct {
		Deposit        depositView `json:"deposit"`
		AccountBalance string      `json:"account_balance"`
		TransactionID  string      `json:"transaction_id"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staff, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		result, err := depositService.Approve(r.Context(), r.PathValue("id"), staff.ID)
		if err != nil {
			renderServiceError(w, l, "Failed to approve deposit", err)
			return
		}

		render.JSON(w, response{
			Deposit:        newDepositView(result.Deposit),
			AccountBalance: result.AccountBalance.StringFixed(2),
			TransactionID:  result.LedgerEntryID,
		})
	})
}

func handleRejectDeposit(depositService depositService, l logger.Logger) http.Handler {
	type request struct {
		Reason string `json:"reason" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staff, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		deposit, err := depositService.Reject(r.Context(), r.PathValue("id"), staff.ID, data.Reason)
		if err != nil {
			renderServiceError(w, l, "Failed to reject deposit", err)
			return
		}

		render.JSON(w, newDepositView(deposit))
	})
}

func handleDepositStats(depositService depositService, l logger.Logger) http.Handler {
	type stat struct {
		Count int64  `json:"count"`
		Total string `json:"total"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := depositService.Stats(r.Context())
		if err != nil {
			renderServiceError(w, l, "Failed to get deposit stats", err)
			return
		}

		response := make(map[string]stat, len(stats))
		for _, s := range stats {
			response[s.Status] = stat{Count: s.Count, Total: s.Total.StringFixed(2)}
		}
		render.JSON(w, response)
	})
}
