package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/minibank/internal/db"
	"github.com/nkiryanov/minibank/internal/handlers"
	"github.com/nkiryanov/minibank/internal/logger"
	"github.com/nkiryanov/minibank/internal/repository/postgres"
	"github.com/nkiryanov/minibank/internal/service/account"
	"github.com/nkiryanov/minibank/internal/service/audit"
	"github.com/nkiryanov/minibank/internal/service/auth"
	"github.com/nkiryanov/minibank/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/minibank/internal/service/deposit"
	"github.com/nkiryanov/minibank/internal/service/reserve"
	"github.com/nkiryanov/minibank/internal/service/transfer"
	"github.com/nkiryanov/minibank/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	auditor *audit.Auditor
	pool    *pgxpool.Pool
	logger  logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(user.DefaultHasher, storage)
	authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	reserveService := reserve.NewService(storage, c.ReserveSeed)
	auditor := audit.New(storage, reserveService, c.AuditInterval, l.With("component", "auditor"))

	router := handlers.NewRouter(handlers.Services{
		Auth:      authService,
		Accounts:  account.NewService(storage),
		Transfers: transfer.NewService(storage, l.With("component", "transfer")),
		Deposits:  deposit.NewService(storage, reserveService, l.With("component", "deposit")),
		Reserve:   reserveService,
		Auditor:   auditor,
	}, l)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		auditor:    auditor,
		pool:       pool,
		logger:     l,
	}, nil
}

// Run http server and reserve auditor until context is cancelled or server fails
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.pool.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-s.auditor.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return s.serve(gctx)
	})

	return g.Wait()
}

// serve starts http server and closes gracefully on context cancellation
func (s *ServerApp) serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
