package validate

import (
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/apperrors"
)

// Money columns are NUMERIC(18,2): amounts and balances stay below 10^16
var MaxAmount = decimal.New(1, 16)

// Money amounts are positive, below MaxAmount, with at most 2 decimal places
func Amount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.LessThan(MaxAmount) || !amount.Equal(amount.Truncate(2)) {
		return apperrors.ErrAmountInvalid
	}
	return nil
}
