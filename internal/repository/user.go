package repository

import (
	"context"
	"errors"

	"openshelf/internal/model"
)

// ErrDuplicateEmail is returned by UserRepository.Create when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository defines account persistence.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id model.UserID) (*model.User, error)
}
