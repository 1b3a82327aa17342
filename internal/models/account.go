package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AccountTypePersonal = "personal"
	AccountTypeBusiness = "business"

	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
)

type Account struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	UserID     uuid.UUID
	Number     string
	HolderName string
	Balance    decimal.Decimal
	Type       string
	Status     string
}
