package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Service struct {
	Repo     Repo
	NewID    func() string
	validate *validator.Validate
}

func NewService(repo Repo) *Service {
	return &Service{
		Repo:     repo,
		NewID:    uuid.NewString,
		validate: validator.New(),
	}
}

// Register onboards a candidate by email. Emails are stored lowercased.
func (s *Service) Register(ctx context.Context, email, industry string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	email, err := s.normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:       s.NewID(),
		Email:    email,
		Industry: strings.TrimSpace(industry),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, user.ID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// LookupByEmail resolves the user id registered for an email address.
func (s *Service) LookupByEmail(ctx context.Context, email string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	email, err := s.normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	return s.Repo.GetByEmail(ctx, email)
}

func (s *Service) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	v := s.validate
	if v == nil {
		v = validator.New()
	}
	if err := v.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}
