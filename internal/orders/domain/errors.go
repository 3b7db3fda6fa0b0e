package domain

import (
	"fmt"

	"ecomart/pkg/errors"
)

// Domain-specific errors
var (
	ErrProductIDRequired       = errors.NewValidation("productId is required", nil)
	ErrCustomerIDRequired      = errors.NewValidation("userId is required", nil)
	ErrShippingAddressRequired = errors.NewValidation("shippingAddress is required", nil)
	ErrOrderIDRequired         = errors.NewValidation("orderId is required", nil)
	ErrGreenProductIDRequired  = errors.NewValidation("greenProductId is required", nil)
	ErrUserLocationRequired    = errors.NewValidation("userLocation is required", nil)
)

// NewOrderNotFound creates a not found error with the order ID
func NewOrderNotFound(id uint) error {
	return errors.NewNotFound("order", id)
}

// NewProductNotFound creates a not found error with the product ID
func NewProductNotFound(id uint) error {
	return errors.NewNotFound("product", id)
}

// NewGreenProductNotFound creates a not found error with the green product ID
func NewGreenProductNotFound(id uint) error {
	return errors.NewNotFound("green product", id)
}

// NewUserNotFound creates a not found error for a reward account
func NewUserNotFound(id uint) error {
	return errors.NewNotFound("user", id)
}

// NewGreenProductUnavailable is returned when no unsold listing exists for a product
func NewGreenProductUnavailable(productID uint) error {
	return &errors.AppError{
		Code:    errors.CodeNotFound,
		Message: "green product not available",
		Details: map[string]interface{}{"productId": productID},
	}
}

// NewAlreadyCancelled is returned on a second cancellation attempt
func NewAlreadyCancelled(orderID uint) error {
	return errors.NewConflict(fmt.Sprintf("order %d is already cancelled", orderID))
}

// NewProductAlreadySold is returned when a normal order targets a sold product
func NewProductAlreadySold(productID uint) error {
	return errors.NewConflict(fmt.Sprintf("product %d is already sold", productID))
}
