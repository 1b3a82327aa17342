package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/logger"
	"github.com/nkiryanov/minibank/internal/metrics"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/service/reserve"
)

// Report compares reserve balance with the balance derived from the ledger
type Report struct {
	Balance     decimal.Decimal
	Seed        decimal.Decimal
	LedgerDelta decimal.Decimal
	Expected    decimal.Decimal

	// Balance - Expected. Non zero means reserve and ledger disagree
	Drift decimal.Decimal
}

func (r Report) Consistent() bool {
	return r.Drift.IsZero()
}

// Auditor verifies that the reserve equals seed plus all reserve deltas recorded in the ledger
type Auditor struct {
	storage  repository.Storage
	reserve  *reserve.Service
	interval time.Duration
	logger   logger.Logger
}

// Interval is used by Run only. Zero interval disables periodic audit
func New(storage repository.Storage, reserveService *reserve.Service, interval time.Duration, l logger.Logger) *Auditor {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Auditor{
		storage:  storage,
		reserve:  reserveService,
		interval: interval,
		logger:   l,
	}
}

func (a *Auditor) Check(ctx context.Context) (Report, error) {
	var report Report

	err := a.storage.InTx(ctx, func(storage repository.Storage) error {
		// Approvals lock the reserve row too, so the ledger can't move while we sum it
		bankReserve, err := a.reserve.WithStorage(storage).Lock(ctx)
		if err != nil {
			return err
		}

		delta, err := storage.Ledger().SumReserveDelta(ctx)
		if err != nil {
			return err
		}

		expected := bankReserve.SeedBalance.Add(delta)
		report = Report{
			Balance:     bankReserve.TotalBalance,
			Seed:        bankReserve.SeedBalance,
			LedgerDelta: delta,
			Expected:    expected,
			Drift:       bankReserve.TotalBalance.Sub(expected),
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("can't audit reserve. Err: %w", err)
	}

	metrics.ReserveBalance.Set(report.Balance.InexactFloat64())
	metrics.ReserveDrift.Set(report.Drift.InexactFloat64())

	if !report.Consistent() {
		a.logger.Warn("Reserve does not match ledger",
			"balance", report.Balance,
			"expected", report.Expected,
			"drift", report.Drift,
		)
	}

	return report, nil
}

// Run audits periodically until ctx is done. Returned channel is closed when the loop exits
func (a *Auditor) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	if a.interval <= 0 {
		a.logger.Debug("Periodic reserve audit disabled")
		close(idleStopped)
		return idleStopped
	}

	a.logger.Debug("Starting reserve auditor", "interval", a.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				a.logger.Debug("Reserve auditor stopped by context")
				return

			case <-ticker.C:
				report, err := a.Check(ctx)
				if err != nil {
					a.logger.Error("Reserve audit failed", "error", err)
					continue
				}
				a.logger.Debug("Reserve audited", "balance", report.Balance, "drift", report.Drift)
			}
		}
	}()

	return idleStopped
}
