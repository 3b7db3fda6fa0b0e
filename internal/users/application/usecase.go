package application

import (
	"context"

	"ecomart/internal/users/domain"
	"ecomart/internal/users/ports"
	"ecomart/pkg/errors"
	"ecomart/pkg/logger"

	"go.uber.org/zap"
)

// DefaultLeaderboardLimit caps leaderboard responses
const DefaultLeaderboardLimit = 100

// UserUseCase handles reward account business logic
type UserUseCase struct {
	repo ports.UserRepository
	log  *logger.Logger
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(repo ports.UserRepository, log *logger.Logger) *UserUseCase {
	return &UserUseCase{
		repo: repo,
		log:  log,
	}
}

// ProvisionInput represents the input for provisioning an account
type ProvisionInput struct {
	ID       uint
	Username string
	Email    string
	Role     string
}

// ProvisionOutput represents the output of provisioning an account
type ProvisionOutput struct {
	User    *domain.User
	Created bool
}

// Provision creates a reward account with zero counters. Repeating a
// provision for the same account returns the existing one unchanged.
func (uc *UserUseCase) Provision(ctx context.Context, input ProvisionInput) (*ProvisionOutput, error) {
	user, err := domain.NewUser(input.ID, input.Username, input.Email, input.Role)
	if err != nil {
		return nil, err
	}

	if user.ID != 0 {
		existing, err := uc.repo.GetByID(ctx, user.ID)
		if err != nil && !errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Internal(err, "failed to check account")
		}
		if existing != nil {
			return &ProvisionOutput{User: existing}, nil
		}
	}

	existing, err := uc.repo.GetByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, errors.Internal(err, "failed to check email existence")
	}
	if existing != nil {
		if user.ID == 0 || user.ID == existing.ID {
			return &ProvisionOutput{User: existing}, nil
		}
		return nil, domain.ErrEmailExists
	}

	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, errors.Internal(err, "failed to create account")
	}

	uc.log.WithContext(ctx).Info("reward account provisioned",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", user.Role),
	)

	return &ProvisionOutput{User: user, Created: true}, nil
}

// GetUserInput represents the input for getting a user
type GetUserInput struct {
	ID uint
}

// GetUserOutput represents the output of getting a user
type GetUserOutput struct {
	User *domain.User
}

// GetUser retrieves an account and its reward balance
func (uc *UserUseCase) GetUser(ctx context.Context, input GetUserInput) (*GetUserOutput, error) {
	if input.ID == 0 {
		return nil, errors.NewValidation("user id is required", nil)
	}

	user, err := uc.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &GetUserOutput{User: user}, nil
}

// Leaderboard ranks shopper accounts by green coins
func (uc *UserUseCase) Leaderboard(ctx context.Context, limit int) ([]*domain.User, error) {
	if limit <= 0 || limit > DefaultLeaderboardLimit {
		limit = DefaultLeaderboardLimit
	}

	users, err := uc.repo.Leaderboard(ctx, domain.RoleUser, limit)
	if err != nil {
		return nil, errors.Internal(err, "failed to load leaderboard")
	}
	return users, nil
}
