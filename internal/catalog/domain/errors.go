package domain

import "go-commerce/pkg/errors"

// Domain-specific errors
var (
	ErrSKURequired     = errors.NewValidation("sku is required", nil)
	ErrSKUInvalid      = errors.NewValidation("sku must be 2-64 upper case letters, digits or dashes", nil)
	ErrNameRequired    = errors.NewValidation("name is required", nil)
	ErrNameLength      = errors.NewValidation("name must be between 2 and 200 characters", nil)
	ErrNegativePrice   = errors.NewValidation("unit price cannot be negative", nil)
	ErrNegativeStock   = errors.NewValidation("stock cannot be negative", nil)
	ErrInvalidQuantity = errors.NewValidation("restock quantity must be greater than 0", nil)
	ErrSKUExists       = errors.NewConflict("sku already exists")
)

// NewProductNotFound creates a not found error with the product ID or SKU
func NewProductNotFound(ref string) error {
	return errors.NewNotFound("product", ref)
}
