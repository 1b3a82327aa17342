package account

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/service/ledger"
)

// Read side of accounts: lookups and statement
type Service struct {
	storage repository.Storage
	ledger  *ledger.Writer
}

func NewService(storage repository.Storage) *Service {
	return &Service{
		storage: storage,
		ledger:  ledger.NewWriter(storage),
	}
}

func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (models.Account, error) {
	return s.storage.Account().GetAccountByUserID(ctx, userID, false)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (models.Account, error) {
	return s.storage.Account().GetAccountByNumber(ctx, number)
}

// Ledger entries touching the account, newest first
func (s *Service) Ledger(ctx context.Context, accountID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	return s.ledger.List(ctx, accountID, limit)
}
