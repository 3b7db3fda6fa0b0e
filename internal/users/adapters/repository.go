package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ecomart/internal/users/domain"
	apperrors "ecomart/pkg/errors"
)

// UserModel is the GORM model for reward accounts (persistence layer).
// The orders context credits green_coins and carbon_footprint_saved directly.
type UserModel struct {
	ID                   uint      `gorm:"primaryKey"`
	Username             string    `gorm:"size:100;not null"`
	Email                string    `gorm:"size:255;uniqueIndex;not null"`
	Role                 string    `gorm:"size:20;index;not null;default:'user'"`
	GreenCoins           int       `gorm:"index;not null;default:0"`
	CarbonFootprintSaved float64   `gorm:"not null;default:0"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Migrate runs auto-migration for the user model
func (r *PostgresUserRepository) Migrate() error {
	return r.db.AutoMigrate(&UserModel{})
}

// Create creates a new account. Accounts provisioned with an explicit ID
// move the id sequence past it so later generated ids do not collide.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	model := toModel(user)
	explicitID := model.ID != 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if !explicitID {
			return nil
		}
		return tx.Exec(
			"SELECT setval(pg_get_serial_sequence('users', 'id'), GREATEST((SELECT MAX(id) FROM users), 1))",
		).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailExists
		}
		return apperrors.NewInternal("failed to create user", err)
	}

	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var model UserModel

	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewUserNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get user", result.Error)
	}

	return toDomain(&model), nil
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserModel

	result := r.db.WithContext(ctx).Where("email = ?", email).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", email)
		}
		return nil, apperrors.NewInternal("failed to get user by email", result.Error)
	}

	return toDomain(&model), nil
}

// Leaderboard lists accounts of a role ordered by green coins
func (r *PostgresUserRepository) Leaderboard(ctx context.Context, role string, limit int) ([]*domain.User, error) {
	q := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("green_coins DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []UserModel
	if err := q.Find(&models).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load leaderboard", err)
	}

	users := make([]*domain.User, len(models))
	for i := range models {
		users[i] = toDomain(&models[i])
	}
	return users, nil
}

func toModel(user *domain.User) *UserModel {
	return &UserModel{
		ID:                   user.ID,
		Username:             user.Username,
		Email:                user.Email,
		Role:                 user.Role,
		GreenCoins:           user.GreenCoins,
		CarbonFootprintSaved: user.CarbonFootprintSaved,
		CreatedAt:            user.CreatedAt,
		UpdatedAt:            user.UpdatedAt,
	}
}

func toDomain(model *UserModel) *domain.User {
	return &domain.User{
		ID:                   model.ID,
		Username:             model.Username,
		Email:                model.Email,
		Role:                 model.Role,
		GreenCoins:           model.GreenCoins,
		CarbonFootprintSaved: model.CarbonFootprintSaved,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}
