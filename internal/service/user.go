package service

import (
	"context"

	"github.com/google/uuid"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// UserService handles rider onboarding.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates a new rider.
func (s *UserService) Register(ctx context.Context, name string) (*domain.User, error) {
	user := &domain.User{
		ID:   uuid.New().String(),
		Name: name,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetProfile retrieves a rider by id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	return s.userRepo.GetByID(ctx, userID)
}
