package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"libraryapi/internal/platform/crypto"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a regular account. Staff accounts are only created by CreateStaff.
func (s *Service) Register(ctx context.Context, email, username, password string) (User, error) {
	return s.create(ctx, email, username, password, RoleUser)
}

func (s *Service) CreateStaff(ctx context.Context, email, username, password string) (User, error) {
	return s.create(ctx, email, username, password, RoleStaff)
}

func (s *Service) create(ctx context.Context, email, username, password, role string) (User, error) {
	email = NormalizeEmail(email)

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return User{}, ErrAlreadyExists
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return *u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
