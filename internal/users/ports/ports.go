package ports

import (
	"context"

	"ecomart/internal/users/domain"
)

// UserRepository defines the interface for reward account persistence
type UserRepository interface {
	// Create creates a new account. A non-zero ID is kept as given.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uint) (*domain.User, error)

	// GetByEmail retrieves an account by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Leaderboard lists accounts with the given role by green coins, highest first.
	// A non-positive limit returns every account.
	Leaderboard(ctx context.Context, role string, limit int) ([]*domain.User, error)
}
