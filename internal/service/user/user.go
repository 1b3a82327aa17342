package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/models"
	"github.com/nkiryanov/minibank/internal/repository"
	"github.com/nkiryanov/minibank/internal/service/validate"
)

// Attempts to pick a free random account number
const accountNumberAttempts = 5

type UserService struct {
	hasher  PasswordHasher
	storage repository.Storage

	// Account number generator, replaced in tests
	newAccountNumber func() string
}

func NewService(hasher PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &UserService{
		hasher:           hasher,
		storage:          storage,
		newAccountNumber: validate.AccountNumber,
	}
}

type CreateUserParams struct {
	Username string
	Password string
	FullName string

	// models.RoleUser if empty
	Role string

	// models.AccountTypePersonal if empty
	AccountType string
}

// Create user together with its account
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	var user models.User

	if params.Password == "" {
		return user, errors.New("password must not be empty")
	}
	if params.Role == "" {
		params.Role = models.RoleUser
	}
	if params.FullName == "" {
		params.FullName = params.Username
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err = storage.User().CreateUser(ctx, repository.CreateUserParams{
			Username:       params.Username,
			HashedPassword: hash,
			FullName:       params.FullName,
			Role:           params.Role,
		})
		if err != nil {
			return err
		}

		return s.openAccount(ctx, storage, user, params.AccountType)
	})
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Each attempt runs in its own savepoint: failed insert aborts only the attempt
func (s *UserService) openAccount(ctx context.Context, storage repository.Storage, user models.User, accountType string) error {
	for range accountNumberAttempts {
		err := storage.InTx(ctx, func(storage repository.Storage) error {
			_, err := storage.Account().CreateAccount(ctx, repository.CreateAccountParams{
				UserID:     user.ID,
				Number:     s.newAccountNumber(),
				HolderName: user.FullName,
				Type:       accountType,
			})
			return err
		})
		if !errors.Is(err, apperrors.ErrAccountNumberTaken) {
			return err
		}
	}

	return fmt.Errorf("no free account number after %d attempts. Err: %w", accountNumberAttempts, apperrors.ErrAccountNumberTaken)
}

// Return user if password matches
// Has to return apperrors.ErrUserNotFound if user not exists or password is wrong
func (s *UserService) Login(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		return models.User{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}
