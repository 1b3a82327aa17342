package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkiryanov/minibank/internal/apperrors"
)

const (
	OutcomeOK                  = "ok"
	OutcomeInvalidAmount       = "invalid_amount"
	OutcomeAccountNotFound     = "account_not_found"
	OutcomeBalanceInsufficient = "insufficient_balance"
	OutcomeReserveInsufficient = "insufficient_reserve"
	OutcomeDepositNotFound     = "deposit_not_found"
	OutcomeAlreadyProcessed    = "already_processed"
	OutcomeRejected            = "rejected_input"
	OutcomeError               = "error"

	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bank_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})

	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_transfers_total",
		Help: "Transfers by outcome",
	}, []string{"outcome"})

	DepositDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_deposit_decisions_total",
		Help: "Deposit approvals and rejections by outcome",
	}, []string{"decision", "outcome"})

	ReserveBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bank_reserve_balance",
		Help: "Bank reserve total balance as seen by the last audit",
	})

	ReserveDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bank_reserve_drift",
		Help: "Reserve balance minus balance expected from the ledger",
	})
)

// Map service error to low cardinality label value
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, apperrors.ErrAmountInvalid):
		return OutcomeInvalidAmount
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return OutcomeAccountNotFound
	case errors.Is(err, apperrors.ErrBalanceInsufficient):
		return OutcomeBalanceInsufficient
	case errors.Is(err, apperrors.ErrReserveInsufficient):
		return OutcomeReserveInsufficient
	case errors.Is(err, apperrors.ErrDepositNotFound):
		return OutcomeDepositNotFound
	case errors.Is(err, apperrors.ErrDepositAlreadyProcessed):
		return OutcomeAlreadyProcessed
	case errors.Is(err, apperrors.ErrRejectReasonRequired),
		errors.Is(err, apperrors.ErrRejectReasonTooLong),
		errors.Is(err, apperrors.ErrDepositNoteTooLong),
		errors.Is(err, apperrors.ErrBalanceLimit):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
