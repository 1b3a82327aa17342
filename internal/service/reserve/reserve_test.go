package reserve

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository/postgres"
	"github.com/nkiryanov/minibank/internal/testutil"
)

func TestReserve(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, seed string, fn func(s *Service)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(NewService(postgres.NewStorage(tx), decimal.RequireFromString(seed)))
		})
	}

	t.Run("default seed", func(t *testing.T) {
		s := NewService(nil, decimal.Zero)

		require.True(t, DefaultSeed.Equal(s.Seed()))
	})

	t.Run("get creates reserve with seed", func(t *testing.T) {
		inTx(t, "1000", func(s *Service) {
			reserve, err := s.Get(t.Context())

			require.NoError(t, err)
			assert.Equal(t, "1000.00", reserve.TotalBalance.StringFixed(2))
			assert.Equal(t, "1000.00", reserve.SeedBalance.StringFixed(2))
		})
	})

	t.Run("has sufficient funds", func(t *testing.T) {
		inTx(t, "1000", func(s *Service) {
			tests := []struct {
				amount   string
				expected bool
			}{
				{"1", true},
				{"1000", true},
				{"1000.01", false},
				{"5000", false},
			}

			for _, tt := range tests {
				ok, err := s.HasSufficientFunds(t.Context(), decimal.RequireFromString(tt.amount))
				require.NoError(t, err)
				assert.Equalf(t, tt.expected, ok, "amount %s", tt.amount)
			}
		})
	})

	t.Run("has sufficient funds rejects invalid amount", func(t *testing.T) {
		inTx(t, "1000", func(s *Service) {
			_, err := s.HasSufficientFunds(t.Context(), decimal.RequireFromString("-1"))

			require.ErrorIs(t, err, apperrors.ErrAmountInvalid)
		})
	})

	t.Run("apply delta", func(t *testing.T) {
		inTx(t, "1000", func(s *Service) {
			total, err := s.ApplyDelta(t.Context(), decimal.RequireFromString("-400"), models.ReserveTxDeposit, "TXN00000042")
			require.NoError(t, err)
			assert.Equal(t, "600.00", total.StringFixed(2))

			reserve, err := s.Get(t.Context())
			require.NoError(t, err)
			assert.Equal(t, "600.00", reserve.TotalBalance.StringFixed(2))
			assert.Equal(t, "TXN00000042", reserve.LastTransactionID)
			assert.Equal(t, "400.00", reserve.LastTransactionAmount.StringFixed(2))
			assert.Equal(t, models.ReserveTxDeposit, reserve.LastTransactionType)
		})
	})

	t.Run("apply delta below zero", func(t *testing.T) {
		inTx(t, "1000", func(s *Service) {
			_, err := s.ApplyDelta(t.Context(), decimal.RequireFromString("-1000.01"), models.ReserveTxDeposit, "TXN00000042")
			require.ErrorIs(t, err, apperrors.ErrReserveInsufficient)

			reserve, err := s.Get(t.Context())
			require.NoError(t, err)
			assert.Equal(t, "1000.00", reserve.TotalBalance.StringFixed(2), "reserve must not change")
			assert.Empty(t, reserve.LastTransactionID)
		})
	})

	t.Run("apply zero delta", func(t *testing.T) {
		inTx(t, "1000", func(s *Service) {
			_, err := s.ApplyDelta(t.Context(), decimal.Zero, models.ReserveTxDeposit, "")

			require.ErrorIs(t, err, apperrors.ErrAmountInvalid)
		})
	})
}
