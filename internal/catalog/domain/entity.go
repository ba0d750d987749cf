package domain

import (
	"regexp"
	"strings"
	"time"
)

// Product is a sellable item and its stock counter
type Product struct {
	ID        string
	SKU       string
	Name      string
	UnitPrice int64
	Stock     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SKURegex is the pattern for stock keeping units
var SKURegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,63}$`)

// Validate validates the product entity
func (p *Product) Validate() error {
	if p.SKU == "" {
		return ErrSKURequired
	}
	if !SKURegex.MatchString(p.SKU) {
		return ErrSKUInvalid
	}
	if p.Name == "" {
		return ErrNameRequired
	}
	if len(p.Name) < 2 || len(p.Name) > 200 {
		return ErrNameLength
	}
	if p.UnitPrice < 0 {
		return ErrNegativePrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// NewProduct creates a new product with validation. SKUs are stored upper case.
func NewProduct(id, sku, name string, unitPrice, stock int64, now time.Time) (*Product, error) {
	product := &Product{
		ID:        id,
		SKU:       strings.ToUpper(strings.TrimSpace(sku)),
		Name:      strings.TrimSpace(name),
		UnitPrice: unitPrice,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}
