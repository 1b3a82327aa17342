package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/handlers/render"
	"github.com/nkiryanov/minibank/internal/handlers/userctx"
	"github.com/nkiryanov/minibank/internal/logger"
)

func handleTransfer(accountService accountService, transferService transferService, l logger.Logger) http.Handler {
	type request struct {
		ToAccountNumber string          `json:"to_account_number" validate:"required,len=10,luhn"`
		Amount          decimal.Decimal `json:"amount" validate:"required"`
		Details         string          `json:"details" validate:"max=500"`
	}
	type response struct {
		TransactionID string    `json:"transaction_id"`
		Amount        string    `json:"amount"`
		BalanceAfter  string    `json:"balance_after"`
		CreatedAt     time.Time `json:"created_at"`
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

		from, err := accountService.GetByUserID(r.Context(), user.ID)
		if err != nil {
			renderServiceError(w, l, "Failed to get source account", err)
			return
		}

		result, err := transferService.TransferToNumber(r.Context(), from.ID, data.ToAccountNumber, data.Amount, data.Details)
		if err != nil {
			renderServiceError(w, l, "Failed to transfer", err)
			return
		}

		render.JSON(w, response{
			TransactionID: result.Entry.ID,
			Amount:        result.Entry.Amount.StringFixed(2),
			BalanceAfter:  result.SourceBalance.StringFixed(2),
			CreatedAt:     result.Entry.CreatedAt,
		})
	})
}
