package service

import (
	"context"
	"fmt"

	"creatorhub/internal/model"
	"creatorhub/internal/quota"
	"creatorhub/internal/repository"
)

type UserService interface {
	Get(ctx context.Context, id string) (*model.User, error)
	Usage(ctx context.Context, id string) (*quota.Summary, error)
}

type userService struct {
	userRepo repository.UserRepository
	ledger   *quota.Ledger
}

func NewUserService(userRepo repository.UserRepository, ledger *quota.Ledger) UserService {
	return &userService{userRepo: userRepo, ledger: ledger}
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", id, err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Usage reports the quota position without charging or persisting anything.
func (s *userService) Usage(ctx context.Context, id string) (*quota.Summary, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := s.ledger.Summarize(u.Usage)
	return &summary, nil
}
