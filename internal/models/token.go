package models

import (
	"time"

	"github.com/google/uuid"
)

// Refresh token as it is stored: the raw value is handed to the client only
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil until rotated
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// What a verified access token tells about its bearer
type AccessClaims struct {
	UserID uuid.UUID
	Role   string
}
