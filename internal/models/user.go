package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string
	FullName       string
	Role           string
}

// Staff and admins may process deposit requests and see the reserve
func (u User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}
