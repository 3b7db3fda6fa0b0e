package domain

import "ecomart/pkg/errors"

// Domain-specific errors
var (
	ErrUsernameRequired = errors.NewValidation("username is required", nil)
	ErrUsernameLength   = errors.NewValidation("username must be between 2 and 100 characters", nil)
	ErrEmailRequired    = errors.NewValidation("email is required", nil)
	ErrEmailInvalid     = errors.NewValidation("email format is invalid", nil)
	ErrRoleInvalid      = errors.NewValidation("role must be one of user, seller, admin", nil)
	ErrEmailExists      = errors.NewConflict("email already registered to another account")
)

// NewUserNotFound creates a not found error with the user ID
func NewUserNotFound(id uint) error {
	return errors.NewNotFound("user", id)
}
