package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) RegisterUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := normalizeUser(user); err != nil {
		return nil, err
	}

	user.ID = 0
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateUser applies a partial update. A new email must not belong to another user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(user)
	if err := normalizeUser(user); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user updated")
	return user, nil
}

// DeleteUser removes a user with no items, bookings or comments.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

func normalizeUser(user *models.User) error {
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return fmt.Errorf("%w: user name is required", domain.ErrValidation)
	}
	user.Email = strings.TrimSpace(user.Email)
	if addr, err := mail.ParseAddress(user.Email); err != nil || addr.Address != user.Email {
		return fmt.Errorf("%w: invalid email %q", domain.ErrValidation, user.Email)
	}
	return nil
}
