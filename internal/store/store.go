// Package store persists users, catalog, carts, wishlists and orders.
//
// Two implementations share the Store interface: MySQLStore for production
// and MemoryStore for local development and tests. Both enforce the same
// uniqueness and reference rules and report violations as apperr kinds.
package store

import (
	"context"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/shopspring/decimal"
)

// ErrSlugTaken is returned by CreateCategory when another category already
// holds the slug. A repeated name is a plain "category already exists" Conflict.
var ErrSlugTaken = apperr.Conflict("category slug already taken")

// Querier is the set of storage operations available both inside and
// outside a transaction.
type Querier interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]models.User, error)

	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListActiveCategories(ctx context.Context, offset, limit int) ([]models.Category, error)
	DeactivateCategory(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListActiveProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error

	// UpsertCartItem adds quantity to the (user, product) line, creating it if absent.
	UpsertCartItem(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error)
	// ListCartItems returns the user's lines with Product loaded, oldest first.
	// forUpdate locks the rows until the surrounding transaction ends.
	ListCartItems(ctx context.Context, userID int64, forUpdate bool) ([]models.CartItem, error)
	DeleteCartItem(ctx context.Context, userID, itemID int64) error
	DeleteCartItems(ctx context.Context, userID int64, itemIDs []int64) error

	CreateWishlistItem(ctx context.Context, userID, productID int64) (*models.WishlistItem, error)
	ListWishlistItems(ctx context.Context, userID int64) ([]models.WishlistItem, error)
	DeleteWishlistItem(ctx context.Context, userID, itemID int64) error

	// CreateOrder inserts the order and its items, filling in generated IDs and timestamps.
	CreateOrder(ctx context.Context, o *models.Order) error
	// GetOrder returns the order with Items (and their Product) loaded.
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	// ListOrders returns matching orders newest first, with Items loaded.
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)

	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// Store is a Querier that can also run a function atomically.
type Store interface {
	Querier
	// ExecTx runs fn in a single transaction. Any error from fn rolls back
	// every write fn made; a nil return commits them.
	ExecTx(ctx context.Context, fn func(q Querier) error) error
	Ping(ctx context.Context) error
	Close() error
}
