package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/handlers/middleware"
	"github.com/nkiryanov/minibank/internal/logger"
	"github.com/nkiryanov/minibank/internal/metrics"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/service/audit"
	"github.com/nkiryanov/minibank/internal/service/deposit"
	"github.com/nkiryanov/minibank/internal/service/transfer"
	"github.com/nkiryanov/minibank/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Auth      authService
	Accounts  accountService
	Transfers transferService
	Deposits  depositService
	Reserve   reserveService
	Auditor   auditor
}

func NewRouter(s Services, logger logger.Logger) http.Handler {
	withAuth := middleware.AuthMiddleware(s.Auth)
	staffOnly := middleware.RequireRole(models.RoleStaff, models.RoleAdmin)

	mux := http.NewServeMux()

	// Register handler with request metrics labeled by the pattern
	handle := func(pattern string, h http.Handler, mds ...func(http.Handler) http.Handler) {
		mds = append([]func(http.Handler) http.Handler{middleware.MetricsMiddleware(pattern)}, mds...)
		mux.Handle(pattern, chain(h, mds...))
	}

	handle("POST /api/user/register", handleRegister(s.Auth, logger))
	handle("POST /api/user/login", handleLogin(s.Auth, logger))
	handle("POST /api/user/refresh", handleTokenRefresh(s.Auth, logger))
	handle("GET /api/user/me", handleUserMe(), withAuth)

	handle("GET /api/account", handleAccount(s.Accounts, logger), withAuth)
	handle("GET /api/account/ledger", handleAccountLedger(s.Accounts, logger), withAuth)
	handle("POST /api/transfers", handleTransfer(s.Accounts, s.Transfers, logger), withAuth)
	handle("POST /api/deposits", handleCreateDeposit(s.Deposits, logger), withAuth)
	handle("GET /api/deposits", handleListUserDeposits(s.Deposits, logger), withAuth)

	handle("GET /api/staff/deposits", handleListDeposits(s.Deposits, logger), withAuth, staffOnly)
	handle("GET /api/staff/deposits/stats", handleDepositStats(s.Deposits, logger), withAuth, staffOnly)
	handle("POST /api/staff/deposits/{id}/approve", handleApproveDeposit(s.Deposits, logger), withAuth, staffOnly)
	handle("POST /api/staff/deposits/{id}/reject", handleRejectDeposit(s.Deposits, logger), withAuth, staffOnly)
	handle("GET /api/staff/reserve", handleGetReserve(s.Reserve, logger), withAuth, staffOnly)
	handle("GET /api/staff/reserve/check", handleCheckReserve(s.Reserve, logger), withAuth, staffOnly)
	handle("GET /api/staff/reserve/audit", handleAuditReserve(s.Auditor, logger), withAuth, staffOnly)

	mux.Handle("GET /metrics", metrics.Handler())

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register customer
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, params user.CreateUserParams) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type accountService interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (models.Account, error)
	Ledger(ctx context.Context, accountID uuid.UUID, limit int) ([]models.LedgerEntry, error)
}

type transferService interface {
	TransferToNumber(ctx context.Context, fromAccountID uuid.UUID, toNumber string, amount decimal.Decimal, details string) (transfer.TransferResult, error)
}

type depositService interface {
	Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, note string) (models.DepositRequest, error)
	Approve(ctx context.Context, depositID string, staffID uuid.UUID) (deposit.ApproveResult, error)
	Reject(ctx context.Context, depositID string, staffID uuid.UUID, reason string) (models.DepositRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DepositRequest, error)
	List(ctx context.Context, status string, limit int) ([]models.DepositRequest, error)
	Stats(ctx context.Context) ([]models.DepositStats, error)
}

type reserveService interface {
	Get(ctx context.Context) (models.BankReserve, error)
	HasSufficientFunds(ctx context.Context, amount decimal.Decimal) (bool, error)
}

type auditor interface {
	Check(ctx context.Context) (audit.Report, error)
}
