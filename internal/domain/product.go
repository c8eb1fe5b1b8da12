package domain

import (
	"time"
)

// ProductStatus is the lifecycle state of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

// Product represents a sellable catalog item
type Product struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description *string       `json:"description" db:"description"`
	Price       float64       `json:"price" db:"price"`
	Photo       *string       `json:"photo" db:"photo"`
	Status      ProductStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
}

// IsActive reports whether sales may be recorded against the product.
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
