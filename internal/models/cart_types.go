package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem defines the struct for the 'cart_items' table.
// (user_id, product_id) is unique; re-adding a product increments Quantity.
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Product *Product `json:"product,omitempty" db:"-"`
}

// LineTotal is the current price times quantity. Zero when Product is not loaded.
func (ci CartItem) LineTotal() decimal.Decimal {
	if ci.Product == nil {
		return decimal.Zero
	}
	return ci.Product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// Cart is the read model returned by GET /cart.
type Cart struct {
	Items       []CartItem      `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// WishlistItem defines the struct for the 'wishlist_items' table.
type WishlistItem struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Product *Product `json:"product,omitempty" db:"-"`
}
