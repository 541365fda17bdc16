package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
// Nullable text columns are pointers for clean JSON serialization.
type Product struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     *string         `json:"description,omitempty" db:"description"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Unit            string          `json:"unit" db:"unit"`
	CategoryID      int64           `json:"category_id" db:"category_id"`
	StockQuantity   int             `json:"stock_quantity" db:"stock_quantity"`
	ImageURL        *string         `json:"image_url,omitempty" db:"image_url"`
	NutritionalInfo *string         `json:"nutritional_info,omitempty" db:"nutritional_info"`
	Origin          *string         `json:"origin,omitempty" db:"origin"`
	IsOrganic       bool            `json:"is_organic" db:"is_organic"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	// Joins (Not in DB table, populated manually)
	Category *Category `json:"category,omitempty" db:"-"`
}

// ProductFilter narrows a product listing. Nil fields are not applied; set
// fields are combined with AND.
type ProductFilter struct {
	CategoryID *int64
	IsOrganic  *bool
	Offset     int
	Limit      int
}
