package user

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher interface {
	Hash(password string) (string, error)

	// Has to return error if password does not match. Must be constant time
	Compare(hashedPassword string, password string) error
}

// Bcrypt over sha256 of the password: bcrypt alone ignores input after 72 bytes
type BcryptHasher struct {
	// bcrypt.DefaultCost if zero
	Cost int
}

var DefaultHasher PasswordHasher = BcryptHasher{}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	digest := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(digest[:], cost)
	return string(hash), err
}

// Hashes of any cost are accepted, so the cost may be raised without resetting passwords
func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	digest := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), digest[:])
}
