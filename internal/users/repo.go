package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email")
)

type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
