package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/handlers/render"
	"github.com/nkiryanov/minibank/internal/logger"
)

// Render money movement errors. Unknown errors are logged and hidden behind 500
func renderServiceError(w http.ResponseWriter, l logger.Logger, msg string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrAmountInvalid):
		render.ServiceError(w, "Invalid amount", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrSourceAccountNotFound):
		render.ServiceError(w, "Source account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrDestinationAccountNotFound):
		render.ServiceError(w, "Destination account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrBalanceInsufficient):
		render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
	case errors.Is(err, apperrors.ErrBalanceLimit):
		render.ServiceError(w, "Balance limit exceeded", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrReserveInsufficient):
		render.ServiceError(w, "Insufficient bank reserve", http.StatusConflict)
	case errors.Is(err, apperrors.ErrDepositNotFound):
		render.ServiceError(w, "Deposit request not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrDepositAlreadyProcessed):
		render.ServiceError(w, "Deposit request already processed", http.StatusConflict)
	case errors.Is(err, apperrors.ErrDepositNoteTooLong):
		render.ServiceError(w, "Deposit note is too long", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrRejectReasonRequired):
		render.ServiceError(w, "Reject reason is required", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrRejectReasonTooLong):
		render.ServiceError(w, "Reject reason is too long", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrLedgerEntryNotFound):
		render.ServiceError(w, "Transaction not found", http.StatusNotFound)
	default:
		l.Error(msg, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
